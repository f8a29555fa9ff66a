/*
Copyright 2026 Jordi Gil.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package fusion implements salience fusion and the temporal-verb gate
// (spec §4.7): weighting final signals by output purpose, picking the
// top few, and keeping action language honest about what the input
// actually evidences.
package fusion

// Purpose is the caller-declared output intent; it selects which weight
// row scores candidates.
type Purpose string

const (
	PurposeAltText     Purpose = "alttext"
	PurposeCaption     Purpose = "caption"
	PurposeSocialMedia Purpose = "socialmedia"
	PurposeVerbose     Purpose = "verbose"
	PurposeMarkdown    Purpose = "markdown"
	PurposeTechnical   Purpose = "technical"
	PurposeTool        Purpose = "tool"
	PurposeDefault     Purpose = "default"
)

// Category is one of the nine fixed candidate slots fusion scores.
type Category string

const (
	CategorySubjects Category = "subjects"
	CategoryEntities Category = "entities"
	CategoryScene    Category = "scene"
	CategoryMotion   Category = "motion"
	CategoryText     Category = "text"
	CategoryColors   Category = "colors"
	CategoryQuality  Category = "quality"
	CategoryIdentity Category = "identity"
	CategoryCaption  Category = "caption"
)

// categoryOrder fixes the column order the weight table below is written
// in; weightRow relies on this order to stay a flat, auditable literal.
var categoryOrder = []Category{
	CategorySubjects, CategoryEntities, CategoryMotion, CategoryText, CategoryScene,
	CategoryColors, CategoryQuality, CategoryIdentity, CategoryCaption,
}

// weightRow is one purpose's 9-value row, in categoryOrder.
type weightRow [9]float64

// weightTable reproduces spec §4.7's table verbatim — column order
// subjects, entities, motion, text, scene, colors, quality, identity,
// caption — because behavioral equivalence requires the exact values,
// not just their relative ranking.
var weightTable = map[Purpose]weightRow{
	PurposeAltText:     {1.0, 0.9, 0.85, 0.7, 0.5, 0.1, 0.0, 0.0, 0.95},
	PurposeCaption:     {1.0, 0.85, 0.8, 0.6, 0.7, 0.3, 0.1, 0.1, 0.9},
	PurposeSocialMedia: {1.0, 0.85, 0.8, 0.6, 0.7, 0.3, 0.1, 0.1, 0.9},
	PurposeVerbose:     {1.0, 0.9, 0.85, 0.8, 0.75, 0.6, 0.5, 0.7, 0.85},
	PurposeMarkdown:    {1.0, 0.9, 0.85, 0.8, 0.75, 0.6, 0.5, 0.7, 0.85},
	PurposeTechnical:   {0.5, 0.6, 0.7, 0.8, 0.5, 0.9, 1.0, 1.0, 0.3},
	PurposeTool:        {0.5, 0.6, 0.7, 0.8, 0.5, 0.9, 1.0, 1.0, 0.3},
	PurposeDefault:     {0.9, 0.8, 0.8, 0.7, 0.6, 0.4, 0.3, 0.3, 0.85},
}

// WeightForPurpose returns the table's value for (purpose, category),
// falling back to the default row for an unknown purpose and to 0 for
// an unknown category.
func WeightForPurpose(purpose Purpose, category Category) float64 {
	row, ok := weightTable[purpose]
	if !ok {
		row = weightTable[PurposeDefault]
	}
	for i, c := range categoryOrder {
		if c == category {
			return row[i]
		}
	}
	return 0
}

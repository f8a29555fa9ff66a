package config

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	var (
		tempDir    string
		configFile string
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "config-test")
		Expect(err).NotTo(HaveOccurred())
		configFile = filepath.Join(tempDir, "config.yaml")
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	Describe("Load", func() {
		Context("when config file exists with valid content", func() {
			BeforeEach(func() {
				validConfig := `
server:
  port: "8080"
  metrics_port: "9090"

store:
  dsn: "postgres://localhost/imagewave"
  max_open_conns: 10
  conn_max_lifetime: "30m"

cache:
  redis_addr: "localhost:6379"
  ttl: "1h"
  max_entries: 5000

vision_llm:
  endpoint: "http://localhost:11434"
  model: "llava"
  timeout: "30s"
  retry_count: 3
  provider: "ollama"
  temperature: 0.3
  max_tokens: 500

routing:
  decision_ttl: "24h"
  cache_size: 10000

logging:
  level: "info"
  format: "json"

images:
  waves:
    quality:
      defaults:
        confidence: 0.7
        timing: "2s"
        weights:
          sharpness: 0.5
        features:
          blur_detection: true
`
				err := os.WriteFile(configFile, []byte(validConfig), 0644)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should load configuration successfully", func() {
				cfg, err := Load(configFile)
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg).NotTo(BeNil())

				Expect(cfg.Server.Port).To(Equal("8080"))
				Expect(cfg.Server.MetricsPort).To(Equal("9090"))

				Expect(cfg.VisionLLM.Endpoint).To(Equal("http://localhost:11434"))
				Expect(cfg.VisionLLM.Model).To(Equal("llava"))
				Expect(cfg.VisionLLM.Timeout).To(Equal(30 * time.Second))
				Expect(cfg.VisionLLM.RetryCount).To(Equal(3))
				Expect(cfg.VisionLLM.Provider).To(Equal("ollama"))
				Expect(cfg.VisionLLM.Temperature).To(Equal(float32(0.3)))
				Expect(cfg.VisionLLM.MaxTokens).To(Equal(500))

				Expect(cfg.Store.DSN).To(Equal("postgres://localhost/imagewave"))
				Expect(cfg.Store.ConnMaxLifetime).To(Equal(30 * time.Minute))

				Expect(cfg.Cache.TTL).To(Equal(time.Hour))
				Expect(cfg.Cache.MaxEntries).To(Equal(5000))

				Expect(cfg.Routing.DecisionTTL).To(Equal(24 * time.Hour))
				Expect(cfg.Routing.CacheSize).To(Equal(10000))

				Expect(cfg.Logging.Level).To(Equal("info"))
				Expect(cfg.Logging.Format).To(Equal("json"))

				Expect(cfg.Images.Waves).To(HaveKey("quality"))
				Expect(cfg.Images.Waves["quality"].Defaults.Confidence).To(Equal(0.7))
				Expect(cfg.Images.Waves["quality"].Defaults.Timing).To(Equal(2 * time.Second))
				Expect(cfg.Images.Waves["quality"].Defaults.Features["blur_detection"]).To(BeTrue())
			})
		})

		Context("when config file has minimal content", func() {
			BeforeEach(func() {
				minimalConfig := `
store:
  dsn: "postgres://localhost/imagewave"

vision_llm:
  endpoint: "http://localhost:11434"
  model: "llava"
  provider: "ollama"
`
				err := os.WriteFile(configFile, []byte(minimalConfig), 0644)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should load with defaults for missing values", func() {
				cfg, err := Load(configFile)
				Expect(err).NotTo(HaveOccurred())

				Expect(cfg.Store.DSN).To(Equal("postgres://localhost/imagewave"))
				Expect(cfg.VisionLLM.Endpoint).To(Equal("http://localhost:11434"))

				Expect(cfg.Routing.CacheSize).To(Equal(10000))
				Expect(cfg.VisionLLM.Provider).To(Equal("ollama"))
				Expect(cfg.VisionLLM.RetryCount).To(Equal(3))
				Expect(cfg.Cache.MaxEntries).To(Equal(10000))
			})
		})

		Context("when config file does not exist", func() {
			It("should return an error", func() {
				_, err := Load("/nonexistent/config.yaml")
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("failed to read config file"))
			})
		})

		Context("when config file has invalid YAML", func() {
			BeforeEach(func() {
				invalidConfig := `
server:
  port: "8080"
  invalid_yaml: [
vision_llm:
  endpoint: "test"
`
				err := os.WriteFile(configFile, []byte(invalidConfig), 0644)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return an error", func() {
				_, err := Load(configFile)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("failed to parse config file"))
			})
		})

		Context("when config has invalid duration formats", func() {
			BeforeEach(func() {
				invalidDurationConfig := `
server:
  port: "8080"

vision_llm:
  endpoint: "http://localhost:11434"
  model: "test"
  timeout: "invalid-duration"
  provider: "ollama"

store:
  dsn: "postgres://localhost/imagewave"

routing:
  decision_ttl: "not-a-duration"
`
				err := os.WriteFile(configFile, []byte(invalidDurationConfig), 0644)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return an error", func() {
				_, err := Load(configFile)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("failed to parse config file"))
			})
		})
	})

	Describe("validate", func() {
		var cfg *Config

		BeforeEach(func() {
			cfg = &Config{
				Server: ServerConfig{Port: "8080", MetricsPort: "9090"},
				Store:  StoreConfig{DSN: "postgres://localhost/imagewave"},
				VisionLLM: VisionLLMConfig{
					Endpoint:    "http://localhost:11434",
					Model:       "llava",
					Timeout:     30 * time.Second,
					RetryCount:  3,
					Provider:    "ollama",
					Temperature: 0.3,
					MaxTokens:   500,
				},
				Logging: LoggingConfig{Level: "info", Format: "json"},
			}
		})

		Context("when config is valid", func() {
			It("should pass validation", func() {
				Expect(validate(cfg)).NotTo(HaveOccurred())
			})
		})

		Context("when vision_llm provider is invalid", func() {
			BeforeEach(func() {
				cfg.VisionLLM.Provider = "invalid"
			})

			It("should return a validation error", func() {
				err := validate(cfg)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("unsupported vision_llm provider"))
			})
		})

		Context("when vision_llm endpoint is missing", func() {
			BeforeEach(func() {
				cfg.VisionLLM.Endpoint = ""
			})

			It("should return a validation error", func() {
				err := validate(cfg)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("vision_llm.endpoint is required"))
			})
		})

		Context("when store DSN is missing", func() {
			BeforeEach(func() {
				cfg.Store.DSN = ""
			})

			It("should return a validation error", func() {
				err := validate(cfg)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("store.dsn is required"))
			})
		})
	})
})

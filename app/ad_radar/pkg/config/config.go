package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// 默认值
const (
	DefaultProvider    = "anthropic"
	DefaultModel       = "claude-sonnet-4-20250514"
	DefaultMaxTokens   = 2000
	DefaultTimeout     = 120
	DefaultSMTPServer  = "smtp.gmail.com"
	DefaultSMTPPort    = 587
	DefaultSMTPTimeout = 30

	// 编号环境变量的上限，例如 SLACK_WEBHOOK_1 ... SLACK_WEBHOOK_10
	maxNumberedEnv = 10
)

// DefaultTopics 默认的主题目录，顺序即采集顺序
var DefaultTopics = []string{
	// 시장 트렌드
	"디지털 광고 시장 트렌드 2025",
	"performance marketing 최신 동향",
	"retail media 성장",
	"쿠키리스 광고 대응",

	// 플랫폼 동향
	"네이버 광고 신규 상품",
	"카카오 광고 업데이트",
	"구글 애즈 변경사항",
	"메타 광고 뉴스",
	"틱톡 광고 한국",

	// 기술 트렌드
	"AI 광고 자동화",
	"생성형 AI 마케팅 활용",
	"광고 측정 attribution",

	// 규제
	"개인정보보호 광고 규제",
	"온라인 플랫폼 법안",
}

// Config 项目配置结构体
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Topics      []string          `yaml:"topics" validate:"dive,required"`
	Schedule    string            `yaml:"schedule"` // cron 表达式，为空时只运行一次
	Report      ReportConfig      `yaml:"report"`
	Output      OutputConfig      `yaml:"output"`
	Slack       SlackConfig       `yaml:"slack"`
	Email       EmailConfig       `yaml:"email"`
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	DB          DBConfig          `yaml:"db"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// LLMConfig 生成服务相关配置
type LLMConfig struct {
	Provider  string `yaml:"provider" validate:"oneof=anthropic openai"`
	BaseURL   string `yaml:"base_url" validate:"omitempty,url"`
	APIKey    string `yaml:"api_key" validate:"required"`
	Model     string `yaml:"model" validate:"required"`
	MaxTokens int    `yaml:"max_tokens" validate:"min=1"`
	Timeout   int    `yaml:"timeout" validate:"min=0"` // 秒
}

// ReportConfig 报告渲染配置
type ReportConfig struct {
	ShowUncategorized bool `yaml:"show_uncategorized"`
}

// OutputConfig 报告文件输出，Dir 为空时不写文件
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// SlackConfig 聊天 Webhook 配置
type SlackConfig struct {
	Webhooks []string `yaml:"webhooks" validate:"dive,url"`
}

// EmailConfig 邮件配置，每个收件人对应一个投递端点
type EmailConfig struct {
	SMTPServer string   `yaml:"smtp_server"`
	SMTPPort   int      `yaml:"smtp_port" validate:"min=0,max=65535"`
	From       string   `yaml:"from" validate:"omitempty,email"`
	Password   string   `yaml:"password"`
	To         []string `yaml:"to" validate:"dive,email"`
	Timeout    int      `yaml:"timeout" validate:"min=0"` // 单次发送的超时秒数
}

// Ready 发件人与凭据齐全
func (e EmailConfig) Ready() bool {
	return e.From != "" && e.Password != ""
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig 并发控制配置
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" validate:"min=0"` // 主题并发数，<=1 时串行
	QPS     int `yaml:"qps" validate:"min=0"`
	RPM     int `yaml:"rpm" validate:"min=0"` // 0 表示不限流
}

// DBConfig 数据库相关配置，Host 为空时不归档
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// DSN 返回 lib/pq 连接串
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}

// MetricsConfig 指标暴露地址，为空时不启动
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// LoadConfig 从指定路径加载配置，并叠加环境变量与默认值
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.Complete(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Complete 叠加环境变量并填充默认值，供非 yaml 来源的配置使用
func (c *Config) Complete() error {
	if err := applyEnv(c, os.Getenv); err != nil {
		return err
	}
	c.setDefaults()
	return nil
}

// applyEnv 叠加部署环境中的变量，非空时覆盖文件配置，列表类变量追加
func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}

	cfg.Slack.Webhooks = append(cfg.Slack.Webhooks, splitComma(getenv("SLACK_WEBHOOK_URL"))...)
	cfg.Slack.Webhooks = append(cfg.Slack.Webhooks, numbered(getenv, "SLACK_WEBHOOK_")...)

	if v := getenv("SMTP_SERVER"); v != "" {
		cfg.Email.SMTPServer = v
	}
	if v := getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SMTP_PORT %q: %w", v, err)
		}
		cfg.Email.SMTPPort = port
	}
	if v := getenv("FROM_EMAIL"); v != "" {
		cfg.Email.From = v
	}
	if v := getenv("EMAIL_PASSWORD"); v != "" {
		cfg.Email.Password = v
	}

	cfg.Email.To = append(cfg.Email.To, splitComma(getenv("TO_EMAIL"))...)
	cfg.Email.To = append(cfg.Email.To, numbered(getenv, "TO_EMAIL_")...)
	return nil
}

func (c *Config) setDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = DefaultProvider
	}
	if c.LLM.Model == "" && c.LLM.Provider == DefaultProvider {
		c.LLM.Model = DefaultModel
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = DefaultMaxTokens
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = DefaultTimeout
	}
	if len(c.Topics) == 0 {
		c.Topics = append([]string(nil), DefaultTopics...)
	}
	if c.Email.SMTPServer == "" {
		c.Email.SMTPServer = DefaultSMTPServer
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = DefaultSMTPPort
	}
	if c.Email.Timeout == 0 {
		c.Email.Timeout = DefaultSMTPTimeout
	}
	if c.Concurrency.Workers == 0 {
		c.Concurrency.Workers = 1
	}
	if c.Concurrency.QPS == 0 {
		c.Concurrency.QPS = 1
	}
	if c.DB.Port == 0 {
		c.DB.Port = 5432
	}
}

// ValidationError 配置校验失败，Fields 为 yaml 字段路径到失败规则
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for field, tag := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: failed on '%s'", field, tag))
	}
	sort.Strings(msgs)
	return "invalid config: " + strings.Join(msgs, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// 错误信息中使用 yaml 字段名
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate 在运行流水线之前校验配置
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		// 去掉根结构体名 "Config."
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		fields[ns] = fe.Tag()
	}
	return &ValidationError{Fields: fields}
}

func splitComma(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func numbered(getenv func(string) string, prefix string) []string {
	var out []string
	for i := 1; i <= maxNumberedEnv; i++ {
		if v := strings.TrimSpace(getenv(prefix + strconv.Itoa(i))); v != "" {
			out = append(out, v)
		}
	}
	return out
}

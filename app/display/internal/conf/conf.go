package conf

type Bootstrap struct {
	Server *Server
	Data   *Data
	Radar  *Radar
}

type Server struct {
	Http *HTTP
}

type HTTP struct {
	Addr    string
	Timeout string
}

type Data struct {
	Database *Database
}

type Database struct {
	Driver string
	Source string
}

// Radar 触发运行时使用的流水线配置，凭据可由环境变量提供
type Radar struct {
	Llm         *LLM         `json:"llm"`
	Topics      []string     `json:"topics"`
	Report      *Report      `json:"report"`
	Slack       *Slack       `json:"slack"`
	Email       *Email       `json:"email"`
	Log         *Log         `json:"log"`
	Concurrency *Concurrency `json:"concurrency"`
}

type LLM struct {
	Provider  string `json:"provider"`
	BaseUrl   string `json:"base_url"`
	ApiKey    string `json:"api_key"`
	Model     string `json:"model"`
	MaxTokens int32  `json:"max_tokens"`
	Timeout   int32  `json:"timeout"`
}

type Report struct {
	ShowUncategorized bool `json:"show_uncategorized"`
}

type Slack struct {
	Webhooks []string `json:"webhooks"`
}

type Email struct {
	SmtpServer string   `json:"smtp_server"`
	SmtpPort   int32    `json:"smtp_port"`
	From       string   `json:"from"`
	Password   string   `json:"password"`
	To         []string `json:"to"`
	Timeout    int32    `json:"timeout"`
}

type Log struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

type Concurrency struct {
	Workers int32 `json:"workers"`
	Qps     int32 `json:"qps"`
	Rpm     int32 `json:"rpm"`
}

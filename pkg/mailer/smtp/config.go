package smtp

// Config holds SMTP relay settings.
// Embed this in your app config for env parsing with caarlos0/env.
type Config struct {
	Host        string `env:"SMTP_HOST"`
	Port        int    `env:"SMTP_PORT" envDefault:"587"`
	Username    string `env:"SMTP_USERNAME"`
	Password    string `env:"SMTP_PASSWORD"`
	TLS         string `env:"SMTP_TLS" envDefault:"mandatory"` // mandatory, opportunistic or none
	SenderEmail string `env:"FROM_EMAIL"`
	SenderName  string `env:"FROM_NAME"`
}

package config

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// SecretsConfig names the SSM parameters that hold credentials in prod.
type SecretsConfig struct {
	QuotexPasswordParam string `mapstructure:"quotex_password_param"`
	TelegramTokenParam  string `mapstructure:"telegram_token_param"`
	DBHostParam         string `mapstructure:"db_host_param"`
	DBUserParam         string `mapstructure:"db_user_param"`
	DBPasswordParam     string `mapstructure:"db_password_param"`
}

// ResolveSecrets overrides credentials with parameter store values when running
// in prod. Values already set through the environment win. It returns the names
// of the parameters that could not be read.
func (c *Config) ResolveSecrets() []string {
	c.Postgres.UseParameterStore(c.Secrets)

	if c.Log.Environment != "prod" {
		return nil
	}

	var failed []string
	resolve := func(param string, dst *string) {
		if param == "" || *dst != "" {
			return
		}
		v := getParameterStoreValue(param, true)
		if v == "" {
			failed = append(failed, param)
			return
		}
		*dst = v
	}

	resolve(c.Secrets.QuotexPasswordParam, &c.Quotex.Password)
	resolve(c.Secrets.TelegramTokenParam, &c.Telegram.BotToken)

	return failed
}

func getParameterStoreValue(parameterName string, decrypt bool) string {
	baseCtx := context.Background()
	ctxWithTimeout, cancel := context.WithTimeout(baseCtx, 5*time.Second)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctxWithTimeout)
	if err != nil {
		return ""
	}

	client := ssm.NewFromConfig(cfg)

	input := &ssm.GetParameterInput{
		Name:           &parameterName,
		WithDecryption: &decrypt,
	}

	result, err := client.GetParameter(ctxWithTimeout, input)
	if err != nil {
		return ""
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return ""
	}

	return *result.Parameter.Value
}

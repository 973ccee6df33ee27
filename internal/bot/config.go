package bot

import "fmt"

type Config struct {
	Token    string
	AdminIDs []int64
}

func (c Config) validate() error {
	if c.Token == "" {
		return fmt.Errorf("bot token is not set, use [bot] token or REGISTRAR_BOT_TOKEN")
	}
	if len(c.AdminIDs) == 0 {
		return fmt.Errorf("no admin_ids configured, nobody could use the bot")
	}
	return nil
}

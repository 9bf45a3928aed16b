package config

import (
	"fmt"
	"os"
)

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(Template), 0o600)
}

// Template is a fully populated config.toml with the default values.
const Template = `# tcp = raw bytes, tcp-lines = one lowercase hex line per frame
uri = "tcp://127.0.0.1:9000"

connect_timeout = "5s"
read_timeout = "15s"
write_timeout = "15s"

buf_size = 4096
max_line_bytes = 1048576

listen_addr = "127.0.0.1:9000"
metrics_addr = ""
log_level = "info"

retry_attempts = 1
retry_initial_delay = "250ms"
retry_max_delay = "5s"
retry_multiplier = 2.0
retry_jitter = true
`

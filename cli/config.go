// ABOUTME: Config subcommand
// ABOUTME: Prints the effective configuration or writes a starter config file
package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/harperreed/tiddle/config"
	"gopkg.in/yaml.v3"
)

// ConfigCommand handles `config path|show|init [--force]`. It needs no
// session, so it takes the loaded config directly.
func ConfigCommand(out io.Writer, cfg *config.Config, path string, args []string) error {
	if path == "" {
		path = config.Path()
	}
	if len(args) == 0 {
		return errors.New("config requires a subcommand: path, show or init")
	}

	switch args[0] {
	case "path":
		fmt.Fprintln(out, path)
	case "show":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		_, err = out.Write(data)
		return err
	case "init":
		force := len(args) > 1 && args[1] == "--force"
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if err := config.Default().Save(path); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s\n", path)
	default:
		return fmt.Errorf("unknown config subcommand: %s", args[0])
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ncmx/internal/shared"
)

// Setup creates the config file if needed and, given a copied cURL request, stores its login cookie.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	config, err := r.loadOrCreateConfig(configPath)
	if err != nil {
		return err
	}

	if curlCmd == "" && curlFile == "" {
		r.writePlain("✓ Config ready at %s\n", configPath)
		r.writePlain("Run 'ncmx setup --curl-file <file>' with a request copied from music.163.com to log in.\n")
		return nil
	}

	var req *shared.CurlRequest
	if curlFile != "" {
		req, err = shared.ParseCurlFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		req, err = shared.ParseCurlCommand([]byte(curlCmd))
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}

	cookie, err := req.LoginCookie()
	if err != nil {
		return err
	}
	config.API.Cookie = cookie

	if !cmd.Bool("no-verify") {
		svc, _ := r.newService(config)
		account, err := svc.Account(ctx)
		if err != nil {
			return fmt.Errorf("cookie rejected by %s: %w", svc.Name(), err)
		}
		config.API.UserID = account.UserID
		r.logger.Info("logged in", "user", account.UserID, "nickname", account.Nickname, "vip", account.VIP)
		r.writePlain("✓ Logged in as %s (%s)\n", account.Nickname, account.UserID)
	}

	if err := shared.SaveConfig(configPath, config); err != nil {
		return err
	}
	r.config = config
	r.writePlain("Cookie saved to: %s\n", configPath)
	return nil
}

func (r *Runner) loadOrCreateConfig(path string) (*shared.Config, error) {
	if _, err := os.Stat(path); err == nil {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		return config, nil
	}

	r.logger.Info("config file not found, creating from template", "path", path)
	if err := shared.CreateConfigFile(path); err != nil {
		return nil, err
	}
	return shared.LoadConfig(path)
}

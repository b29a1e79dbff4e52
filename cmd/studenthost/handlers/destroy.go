package handlers

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"studenthost/internal/config"
	"studenthost/internal/platform/proxmox"
	"studenthost/internal/platform/ssh"
)

// DestroyOptions carries the destroy command's flags.
type DestroyOptions struct {
	StartID int
	Count   int
	Yes     bool
	EnvFile string
}

// containerDestroyer interface for testing - matches proxmox.Client.
type containerDestroyer interface {
	Destroy(ctx context.Context, id int) error
}

// Factory function variables - can be replaced in tests.
var (
	stdin io.Reader = os.Stdin

	newDestroyer = func(cfg *config.Config) (containerDestroyer, error) {
		run, err := ssh.NewClient(sshConfig(cfg.Hypervisor))
		if err != nil {
			return nil, fmt.Errorf("hypervisor: %w", err)
		}
		return proxmox.NewClient(run), nil
	}
)

// Destroy tears down a contiguous id range of student containers.
//
// Each container is stopped and destroyed individually; a failure is
// logged and the loop continues, so one stuck container does not leave
// the rest of a class allocated.
func Destroy(ctx context.Context, opts DestroyOptions) error {
	if opts.Count < 1 {
		return fmt.Errorf("--count must be at least 1, got %d", opts.Count)
	}

	cfg, err := loadConfig(opts.EnvFile)
	if err != nil {
		return err
	}

	first, last := opts.StartID, opts.StartID+opts.Count-1
	if !opts.Yes {
		fmt.Printf("About to destroy containers %d through %d. Type 'yes' to continue: ", first, last)
		line, _ := bufio.NewReader(stdin).ReadString('\n')
		if strings.TrimSpace(line) != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	destroyer, err := newDestroyer(cfg)
	if err != nil {
		return err
	}

	failed := 0
	for id := first; id <= last; id++ {
		if err := destroyer.Destroy(ctx, id); err != nil {
			log.Printf("ct %d: %v", id, err)
			failed++
			continue
		}
		log.Printf("ct %d destroyed", id)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d containers could not be destroyed", failed, opts.Count)
	}
	log.Printf("destroyed %d containers (%d-%d)", opts.Count, first, last)
	return nil
}

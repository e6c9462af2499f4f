// Command shopctl browses the storefront, keeps a local cart and places
// orders from it.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"storefront/apiclient"
	"storefront/clientcart"
	"storefront/config"
)

type command struct {
	name    string
	usage   string
	summary string
	flags   func(fs *pflag.FlagSet)
	run     func(ctx context.Context, env *environment, args []string) error
}

// environment is what every command runs against.
type environment struct {
	client   *apiclient.Client
	stateDir string
}

func (e *environment) sessionPath() string { return filepath.Join(e.stateDir, "session") }

func (e *environment) cart() (*clientcart.Store, error) {
	storage := clientcart.FileStorage{Path: filepath.Join(e.stateDir, "cart.json")}
	return clientcart.Open(storage.Load, storage.Save)
}

// authed returns a client carrying the saved session token.
func (e *environment) authed() (*apiclient.Client, error) {
	data, err := os.ReadFile(e.sessionPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.New("not logged in; run shopctl login first")
	}
	if err != nil {
		return nil, err
	}
	return e.client.WithToken(strings.TrimSpace(string(data))), nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "shopctl:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	global := pflag.NewFlagSet("shopctl", pflag.ContinueOnError)
	apiURL := global.String("api", config.GetEnv("SHOPCTL_API", "http://localhost:8080/api"), "storefront API base URL")
	stateDir := global.String("state-dir", defaultStateDir(), "directory holding the session and the local cart")
	global.SetInterspersed(false)
	global.Usage = func() { usage(global) }
	if err := global.Parse(args); err != nil {
		return err
	}

	rest := global.Args()
	if len(rest) == 0 {
		usage(global)
		return errors.New("missing command")
	}

	name := rest[0]
	if name == "cart" && len(rest) > 1 {
		name, rest = "cart "+rest[1], rest[1:]
	}
	cmd, found := findCommand(name)
	if !found {
		usage(global)
		return fmt.Errorf("unknown command %q", name)
	}

	fs := pflag.NewFlagSet(cmd.name, pflag.ContinueOnError)
	if cmd.flags != nil {
		cmd.flags(fs)
	}
	if err := fs.Parse(rest[1:]); err != nil {
		return fmt.Errorf("%w\nusage: shopctl %s", err, cmd.usage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	env := &environment{client: apiclient.New(*apiURL, nil), stateDir: *stateDir}
	return cmd.run(ctx, env, fs.Args())
}

func findCommand(name string) (command, bool) {
	for _, cmd := range commands() {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".shopctl"
	}
	return filepath.Join(dir, "shopctl")
}

func usage(global *pflag.FlagSet) {
	fmt.Fprintln(os.Stderr, "usage: shopctl [global flags] <command> [flags]")
	fmt.Fprintln(os.Stderr, "\ncommands:")
	for _, cmd := range commands() {
		fmt.Fprintf(os.Stderr, "  %-36s %s\n", cmd.usage, cmd.summary)
	}
	fmt.Fprintln(os.Stderr, "\nglobal flags:")
	fmt.Fprint(os.Stderr, global.FlagUsages())
}

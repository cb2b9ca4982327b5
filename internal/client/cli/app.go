package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/credgate/internal/client/client"
	cc "github.com/dmitrijs2005/credgate/internal/client/config"
	"github.com/dmitrijs2005/credgate/internal/common"
	"github.com/dmitrijs2005/credgate/internal/cryptox"
	"github.com/dmitrijs2005/credgate/internal/server"
	sc "github.com/dmitrijs2005/credgate/internal/server/config"
	"github.com/dmitrijs2005/credgate/internal/server/models"
	"github.com/dmitrijs2005/credgate/internal/server/services"
)

// ErrLoginFailed is returned by check when the credentials were refused.
var ErrLoginFailed = errors.New("login failed")

// Provisioner is satisfied by services.AccountService.
type Provisioner interface {
	Create(ctx context.Context, identifier, secret string) (*models.Account, error)
	SetSecret(ctx context.Context, identifier, secret string) error
}

// AuthClient is satisfied by client.GRPCClient.
type AuthClient interface {
	Login(ctx context.Context, identifier, secret string) (*client.Session, error)
	WhoAmI(ctx context.Context) (*client.Session, error)
	Close() error
}

type App struct {
	args   []string
	in     *bufio.Reader
	out    io.Writer
	stdin  int
	openDB func(ctx context.Context, args []string) (Provisioner, func() error, error)
	dial   func(args []string) (AuthClient, time.Duration, error)
}

// NewApp builds credctl around stdin/stdout. args are the flags that follow
// the command and identifier.
func NewApp(args []string) *App {
	return &App{
		args:   args,
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		stdin:  int(os.Stdin.Fd()),
		openDB: openProvisioner,
		dial:   dialAuth,
	}
}

func openProvisioner(ctx context.Context, args []string) (Provisioner, func() error, error) {
	cfg, err := sc.Load(args)
	if err != nil {
		return nil, nil, err
	}

	db, rm, err := server.OpenStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	h, err := cryptox.NewHasher(cfg.Argon2Params())
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return services.NewAccountService(db, rm, h, server.IdentifierPolicy(cfg)), db.Close, nil
}

func dialAuth(args []string) (AuthClient, time.Duration, error) {
	cfg, err := cc.Load(args)
	if err != nil {
		return nil, 0, err
	}
	c, err := client.NewAuthClient(cfg.ServerEndpointAddr)
	if err != nil {
		return nil, 0, err
	}
	return c, cfg.RequestTimeout, nil
}

// Run executes one command for identifier.
func (a *App) Run(ctx context.Context, command, identifier string) error {
	switch command {
	case "add":
		return a.add(ctx, identifier)
	case "passwd":
		return a.passwd(ctx, identifier)
	case "check":
		return a.check(ctx, identifier)
	}
	return fmt.Errorf("unknown command %q", command)
}

// readSecret prompts on a terminal (twice when confirm is set) and
// otherwise takes the first line of stdin.
func (a *App) readSecret(confirm bool) ([]byte, error) {
	if isTerminal(a.stdin) {
		if confirm {
			return GetNewPassword(a.out)
		}
		return GetPassword(a.out, "Enter secret: ")
	}
	line, err := ReadLine(a.in)
	if err != nil {
		return nil, fmt.Errorf("error reading secret: %w", err)
	}
	return []byte(line), nil
}

func (a *App) add(ctx context.Context, identifier string) error {
	secret, err := a.readSecret(true)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(secret)

	p, closeFn, err := a.openDB(ctx, a.args)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	acc, err := p.Create(ctx, identifier, string(secret))
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return fmt.Errorf("account %q already exists", identifier)
		}
		return err
	}

	fmt.Fprintf(a.out, "Created account %s (%s)\n", acc.Identifier, acc.ID)
	return nil
}

func (a *App) passwd(ctx context.Context, identifier string) error {
	secret, err := a.readSecret(true)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(secret)

	p, closeFn, err := a.openDB(ctx, a.args)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	if err := p.SetSecret(ctx, identifier, string(secret)); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("no account %q", identifier)
		}
		return err
	}

	fmt.Fprintf(a.out, "Secret updated for %s\n", identifier)
	return nil
}

func (a *App) check(ctx context.Context, identifier string) error {
	secret, err := a.readSecret(false)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(secret)

	c, timeout, err := a.dial(a.args)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := c.Login(ctx, identifier, string(secret)); err != nil {
		if errors.Is(err, client.ErrUnauthorized) || errors.Is(err, client.ErrInvalidInput) {
			fmt.Fprintf(a.out, "Failure: %s\n", common.GenericLoginError)
			return ErrLoginFailed
		}
		return err
	}

	who, err := c.WhoAmI(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Success: %s (%s), session valid until %s\n",
		who.Identifier, who.AccountID, who.ExpiresAt.Format(time.RFC3339))
	return nil
}

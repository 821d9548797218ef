package cli

import (
	"log/slog"

	"github.com/Tychelis/virtual-tutor-system-sub001/internal/client/api"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/client/expiry"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/client/iocli"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/client/monitor"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/client/prompt"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/client/session"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/client/storage"
)

// Cli связывает команды терминального клиента с ядром сессии
type Cli struct {
	apiClient *api.Client
	store     storage.AuthStore
	io        iocli.IO
	logger    *slog.Logger
}

// New создает CLI поверх API клиента и локального хранилища сессии
func New(apiClient *api.Client, store storage.AuthStore, io iocli.IO, logger *slog.Logger) *Cli {
	return &Cli{
		apiClient: apiClient,
		store:     store,
		io:        io,
		logger:    logger,
	}
}

// newController собирает контроллер сессии для одной команды.
// Остаток времени жизни токена по умолчанию читается из exp claim локально.
func (c *Cli) newController(cfg monitor.Config, onChange func(prompt.Snapshot), onSignedOut func()) *session.Controller {
	mon := monitor.New(expiry.FromClaims(c.store), c.logger)
	return session.New(c.apiClient, c.store, mon, session.Config{
		Monitor:     cfg,
		OnChange:    onChange,
		OnSignedOut: onSignedOut,
		Logger:      c.logger,
	})
}

// Usage печатает справку по командам
func Usage(io iocli.IO) {
	io.Println("Tutor Platform Client")
	io.Println("")
	io.Println("Usage:")
	io.Println("  tutor-client [OPTIONS] COMMAND")
	io.Println("")
	io.Println("Options:")
	io.Println("  --version   Show version information")
	io.Println("  --server    Server URL (default: http://localhost:8080)")
	io.Println("  --db        Path to local session database (default: tutor-client.db)")
	io.Println("")
	io.Println("Commands:")
	io.Println("  login                   Sign in and store the session")
	io.Println("  logout                  Sign out and clear the session")
	io.Println("  register                Create a new account (email verification code)")
	io.Println("  status                  Show session status and remaining validity")
	io.Println("  profile [flags]         Show or update the profile")
	io.Println("  passwd                  Change password via verification code")
	io.Println("  watch [flags]           Watch the session and warn before expiry")
	io.Println("")
	io.Println("Examples:")
	io.Println("  tutor-client login")
	io.Println("  tutor-client profile --full-name 'Jane Doe' --bio 'Algebra tutor'")
	io.Println("  tutor-client watch --warning 5m --interval 30s")
	io.Println("  tutor-client --server https://example.com status")
}

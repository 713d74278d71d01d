package prober

import (
	"context"
	"strings"

	"github.com/viant/gosh"
	rssh "github.com/viant/gosh/runner/ssh"
	"github.com/viant/scy/cred/secret"
	"golang.org/x/crypto/ssh"
)

// sshDialer opens secure-shell sessions with credentials resolved through
// the secret service.
type sshDialer struct {
	credentials string
}

// NewSSHDialer returns the default dialer; credentials names a secret
// resource, empty means the local default.
func NewSSHDialer(credentials string) Dialer {
	return &sshDialer{credentials: credentials}
}

// Dial opens a session to host. A "user@host" form overrides the credential
// user; a host without a port gets the secure-shell default.
func (d *sshDialer) Dial(ctx context.Context, host string) (Session, error) {
	config, err := d.sshConfig(ctx)
	if err != nil {
		return nil, err
	}
	target := host
	if at := strings.LastIndex(target, "@"); at != -1 {
		clone := *config
		clone.User = target[:at]
		config = &clone
		target = target[at+1:]
	}
	if !strings.Contains(target, ":") {
		target += ":22"
	}
	return gosh.New(ctx, rssh.New(target, config))
}

// sshConfig resolves the client configuration from the secrets resource.
func (d *sshDialer) sshConfig(ctx context.Context) (*ssh.ClientConfig, error) {
	credentials := d.credentials
	if credentials == "" {
		credentials = "localhost"
	}
	secrets := secret.New()
	generic, err := secrets.GetCredentials(ctx, credentials)
	if err != nil {
		return nil, err
	}
	return generic.SSH.Config(ctx)
}

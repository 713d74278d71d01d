package mirror

import (
	"context"
	"strings"

	"github.com/viant/afs/storage"
	"github.com/viant/scy/cred/secret"
	"golang.org/x/crypto/ssh"
)

// Resolver maps a destination to a storage URL and the access options
// required to reach it.
type Resolver func(ctx context.Context, dest Destination) (string, []storage.Option, error)

// NewSCPResolver resolves destinations to secure-copy URLs, with client
// credentials obtained through the secret service. credentials names a
// secret resource; empty means the local default.
func NewSCPResolver(credentials string) Resolver {
	return func(ctx context.Context, dest Destination) (string, []storage.Option, error) {
		config, err := sshConfig(ctx, credentials)
		if err != nil {
			return "", nil, err
		}
		host := dest.Host
		if at := strings.LastIndex(host, "@"); at != -1 {
			clone := *config
			clone.User = host[:at]
			config = &clone
			host = host[at+1:]
		}
		if !strings.Contains(host, ":") {
			host += ":22"
		}
		return "scp://" + host + dest.Dir, []storage.Option{config}, nil
	}
}

// sshConfig resolves the client configuration from the secrets resource.
func sshConfig(ctx context.Context, credentials string) (*ssh.ClientConfig, error) {
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

package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/bugrelay/bugrelay/pkc/rsajwt"
)

// ErrNoInstallation is returned when the App has no installation
// covering the requested repository. Callers collapse this and
// exchange failures into one external outcome but can log them apart.
var ErrNoInstallation = errors.New("github: app not installed on repository")

// assetDir is where uploaded screenshots live inside the target
// repository.
const assetDir = ".feedback-assets"

// Broker turns the App credential into repository-scoped access on
// demand. Every operation derives a fresh assertion from the PEM key;
// nothing is cached across calls, trading repeated signing cost for
// never holding parsed key material between requests.
type Broker struct {
	client        *Client
	appID         string
	privateKeyPEM []byte
	logger        *slog.Logger
}

func NewBroker(client *Client, appID string, privateKeyPEM []byte, logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		client:        client,
		appID:         appID,
		privateKeyPEM: privateKeyPEM,
		logger:        logger,
	}
}

// InstallationExists reports whether the App is installed on the
// repository.
func (b *Broker) InstallationExists(ctx context.Context, owner, repo string) (bool, error) {
	assertion, err := rsajwt.Sign(b.appID, b.privateKeyPEM, time.Now())
	if err != nil {
		return false, err
	}
	_, found, err := b.client.ResolveInstallation(ctx, assertion, owner, repo)
	return found, err
}

// ExchangeForAccessToken derives a fresh assertion, resolves the
// installation covering owner/repo, and exchanges for a scoped access
// token. Missing installations surface as ErrNoInstallation; exchange
// failures keep their own error so logs can tell the two apart, even
// though both collapse to the same external response.
func (b *Broker) ExchangeForAccessToken(ctx context.Context, owner, repo string) (string, error) {
	assertion, err := rsajwt.Sign(b.appID, b.privateKeyPEM, time.Now())
	if err != nil {
		return "", fmt.Errorf("deriving assertion: %w", err)
	}

	installationID, found, err := b.client.ResolveInstallation(ctx, assertion, owner, repo)
	if err != nil {
		return "", fmt.Errorf("resolving installation: %w", err)
	}
	if !found {
		return "", ErrNoInstallation
	}

	token, err := b.client.CreateInstallationToken(ctx, assertion, installationID)
	if err != nil {
		return "", fmt.Errorf("exchanging for access token: %w", err)
	}
	return token, nil
}

// CreateIssue creates an issue in the repository using the scoped
// access token.
func (b *Broker) CreateIssue(ctx context.Context, token, owner, repo string, request CreateIssueRequest) (*Issue, error) {
	return b.client.CreateIssue(ctx, token, owner, repo, request)
}

// UploadScreenshot stores a data-URI screenshot in the repository's
// asset directory and returns its download URL. Filenames are ULIDs:
// millisecond timestamp plus entropy, so concurrent uploads cannot
// collide and listings sort chronologically.
func (b *Broker) UploadScreenshot(ctx context.Context, token, owner, repo, dataURI string) (string, error) {
	payload, extension, err := splitDataURI(dataURI)
	if err != nil {
		return "", err
	}

	name := ulid.Make().String() + "." + extension
	path := assetDir + "/" + name
	return b.client.PutContents(ctx, token, owner, repo, path,
		"Add feedback screenshot "+name, payload)
}

// IsRepoPublic reports whether the repository is publicly visible.
// Any failure defaults to false: a wrongly withheld link is harmless,
// a wrongly exposed one is not.
func (b *Broker) IsRepoPublic(ctx context.Context, token, owner, repo string) bool {
	repository, err := b.client.GetRepository(ctx, token, owner, repo)
	if err != nil {
		b.logger.Warn("repository visibility check failed, assuming private",
			"repo", owner+"/"+repo, "error", err)
		return false
	}
	return !repository.Private
}

// splitDataURI strips the data-URI prefix and returns the base64
// payload plus a file extension inferred from the media type.
func splitDataURI(dataURI string) (payload, extension string, err error) {
	header, payload, ok := strings.Cut(dataURI, ",")
	if !ok || !strings.HasPrefix(header, "data:") {
		return "", "", fmt.Errorf("github: malformed data URI")
	}
	switch {
	case strings.Contains(header, "image/jpeg"):
		extension = "jpg"
	case strings.Contains(header, "image/webp"):
		extension = "webp"
	default:
		extension = "png"
	}
	return payload, extension, nil
}

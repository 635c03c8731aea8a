package imagehost

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Provider names accepted in the chain configuration.
const (
	ProviderFreeImage = "freeimage"
	ProviderPostImage = "postimage"
	ProviderImgBB     = "imgbb"
	ProviderImgur     = "imgur"
	ProviderStorage   = "storage"
)

// DefaultOrder is the fallback order used when none is configured.
var DefaultOrder = []string{
	ProviderFreeImage,
	ProviderPostImage,
	ProviderImgBB,
	ProviderImgur,
	ProviderStorage,
}

const (
	DefaultFreeImageEndpoint = "https://freeimage.host/api/1/upload"
	DefaultPostImageEndpoint = "https://postimg.cc/json"
	DefaultImgBBEndpoint     = "https://api.imgbb.com/1/upload"
	DefaultImgurEndpoint     = "https://api.imgur.com/3/image"
)

func FreeImage(endpoint, apiKey string) Descriptor {
	return Descriptor{
		Name:      ProviderFreeImage,
		Endpoint:  orDefault(endpoint, DefaultFreeImageEndpoint),
		FileField: "source",
		Fields:    map[string]string{"type": "file", "action": "upload"},
		Query:     map[string]string{"key": apiKey},
		Extract:   ExtractFreeImage,
	}
}

func PostImage(endpoint string) Descriptor {
	return Descriptor{
		Name:      ProviderPostImage,
		Endpoint:  orDefault(endpoint, DefaultPostImageEndpoint),
		FileField: "upload",
		Fields:    map[string]string{"optsize": "0", "expire": "0"},
		Extract:   ExtractPostImage,
	}
}

func ImgBB(endpoint, apiKey string) Descriptor {
	return Descriptor{
		Name:      ProviderImgBB,
		Endpoint:  orDefault(endpoint, DefaultImgBBEndpoint),
		FileField: "image",
		Query:     map[string]string{"key": apiKey},
		Extract:   ExtractImgBB,
	}
}

func Imgur(endpoint, clientID string) Descriptor {
	return Descriptor{
		Name:      ProviderImgur,
		Endpoint:  orDefault(endpoint, DefaultImgurEndpoint),
		FileField: "image",
		Header:    map[string]string{"Authorization": "Client-ID " + clientID},
		Extract:   ExtractImgur,
	}
}

// ChainConfig holds what NewChain needs to build each named provider.
type ChainConfig struct {
	Order []string

	// Strict reports a shortened chain at error level. Production
	// deployments are expected to configure every provider.
	Strict bool

	FreeImageKey      string
	FreeImageEndpoint string
	PostImageEndpoint string
	ImgBBKey          string
	ImgBBEndpoint     string
	ImgurClientID     string
	ImgurEndpoint     string
}

// NewChain builds the ordered provider list named by cfg.Order.
// Providers missing a credential, or storage without a store, are left out
// and the remaining order is kept.
func NewChain(cfg ChainConfig, store ObjectStore, client *http.Client) ([]Provider, error) {
	order := cfg.Order
	if len(order) == 0 {
		order = DefaultOrder
	}

	seen := make(map[string]bool, len(order))
	chain := make([]Provider, 0, len(order))
	var disabled, missing []string

	for _, name := range order {
		if seen[name] {
			return nil, fmt.Errorf("image provider %q listed twice", name)
		}
		seen[name] = true

		var (
			provider Provider
			needs    string
		)
		switch name {
		case ProviderFreeImage:
			if cfg.FreeImageKey == "" {
				needs = "FREEIMAGE_API_KEY"
				break
			}
			provider = NewHTTPProvider(FreeImage(cfg.FreeImageEndpoint, cfg.FreeImageKey), client)
		case ProviderPostImage:
			provider = NewHTTPProvider(PostImage(cfg.PostImageEndpoint), client)
		case ProviderImgBB:
			if cfg.ImgBBKey == "" {
				needs = "IMGBB_API_KEY"
				break
			}
			provider = NewHTTPProvider(ImgBB(cfg.ImgBBEndpoint, cfg.ImgBBKey), client)
		case ProviderImgur:
			if cfg.ImgurClientID == "" {
				needs = "IMGUR_CLIENT_ID"
				break
			}
			provider = NewHTTPProvider(Imgur(cfg.ImgurEndpoint, cfg.ImgurClientID), client)
		case ProviderStorage:
			if store == nil {
				needs = "object storage"
				break
			}
			provider = NewStorageProvider(store)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
		}

		if provider == nil {
			disabled = append(disabled, name)
			missing = append(missing, needs)
			continue
		}
		chain = append(chain, provider)
	}

	if len(disabled) > 0 {
		level := zerolog.WarnLevel
		if cfg.Strict {
			level = zerolog.ErrorLevel
		}
		log.WithLevel(level).
			Strs("disabled", disabled).
			Strs("missing", missing).
			Int("active", len(chain)).
			Msg("Image provider chain shortened")
	}

	return chain, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

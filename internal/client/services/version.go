package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/fieldsales/internal/netx"
)

const DefaultVersionCheckTimeout = 10 * time.Second

// maxManifestSize caps how much of an S3 manifest object is read.
const maxManifestSize = 1 << 20

var (
	ErrManifestNoVersion   = errors.New("version check response missing version")
	ErrUnsupportedManifest = errors.New("unsupported version manifest url")
)

// Seams over the AWS SDK, replaced in tests.
var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
	getS3Object = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		return c.GetObject(ctx, in)
	}
)

// VersionManifest is the normalized update information.
type VersionManifest struct {
	Version   string
	Mandatory bool
	UpdateURL string
	Message   string
}

type VersionStatus string

const (
	VersionOK       VersionStatus = "ok"
	VersionOutdated VersionStatus = "outdated"
	VersionError    VersionStatus = "error"
)

// VersionOutcome is the result of a check. Outdated means a newer mandatory
// release exists; a newer optional release still reports ok.
type VersionOutcome struct {
	Status   VersionStatus
	Manifest *VersionManifest
	Err      error
}

// ManifestSource returns the raw manifest JSON.
type ManifestSource interface {
	Fetch(ctx context.Context) ([]byte, error)
}

type HTTPManifestSource struct {
	URL    string
	Client *http.Client
}

func (s *HTTPManifestSource) Fetch(ctx context.Context) ([]byte, error) {
	var raw json.RawMessage
	if err := netx.GetJSON(ctx, s.Client, s.URL, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// S3Settings configures access to an S3-compatible store.
type S3Settings struct {
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

type S3ManifestSource struct {
	Bucket   string
	Key      string
	Settings S3Settings
}

func (s *S3ManifestSource) Fetch(ctx context.Context) ([]byte, error) {
	opts := []func(*config.LoadOptions) error{}
	if s.Settings.Region != "" {
		opts = append(opts, config.WithRegion(s.Settings.Region))
	}
	if s.Settings.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.Settings.AccessKey, s.Settings.SecretKey, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	c := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.Settings.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.Settings.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	out, err := getS3Object(c, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.Bucket, s.Key, err)
	}
	defer out.Body.Close()

	return io.ReadAll(io.LimitReader(out.Body, maxManifestSize))
}

// NewManifestSource picks the source by URL scheme: http(s) or s3://bucket/key.
func NewManifestSource(rawURL string, s3s S3Settings, hc *http.Client) (ManifestSource, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedManifest, err)
	}
	switch u.Scheme {
	case "http", "https":
		return &HTTPManifestSource{URL: rawURL, Client: hc}, nil
	case "s3":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedManifest, rawURL)
		}
		return &S3ManifestSource{Bucket: u.Host, Key: key, Settings: s3s}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedManifest, rawURL)
	}
}

type VersionService interface {
	Check(ctx context.Context) VersionOutcome
}

type versionService struct {
	src      ManifestSource
	current  string
	platform string
	timeout  time.Duration
}

// NewVersionService compares the manifest with current. platform ("android"
// or "ios") selects the entry of per-platform manifests.
func NewVersionService(src ManifestSource, current, platform string, timeout time.Duration) VersionService {
	if timeout <= 0 {
		timeout = DefaultVersionCheckTimeout
	}
	return &versionService{src: src, current: current, platform: platform, timeout: timeout}
}

func (s *versionService) Check(ctx context.Context) VersionOutcome {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.src.Fetch(ctx)
	if err != nil {
		return VersionOutcome{Status: VersionError, Err: err}
	}

	m, err := NormalizeManifest(raw, s.platform)
	if err != nil {
		return VersionOutcome{Status: VersionError, Err: err}
	}

	if CompareSemver(m.Version, s.current) == 1 && m.Mandatory {
		return VersionOutcome{Status: VersionOutdated, Manifest: m}
	}
	return VersionOutcome{Status: VersionOK, Manifest: m}
}

type flatManifest struct {
	Version   string `json:"version"`
	Mandatory bool   `json:"mandatory"`
	UpdateURL string `json:"updateUrl"`
	Message   string `json:"message"`
}

type platformEntry struct {
	VersionCode *int64 `json:"versionCode"`
	VersionName string `json:"versionName"`
	URL         string `json:"url"`
	Mandatory   bool   `json:"mandatory"`
	Message     string `json:"message"`
}

type platformManifest struct {
	Android *platformEntry `json:"android"`
	IOS     *platformEntry `json:"ios"`
}

// NormalizeManifest accepts {version, mandatory, updateUrl, message} or
// {android:{...}, ios:{...}}; a missing platform entry falls back to the other.
func NormalizeManifest(raw []byte, platform string) (*VersionManifest, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decode version manifest: %w", err)
	}

	if _, ok := probe["version"]; ok {
		var f flatManifest
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("decode version manifest: %w", err)
		}
		if f.Version == "" {
			return nil, ErrManifestNoVersion
		}
		return &VersionManifest{Version: f.Version, Mandatory: f.Mandatory, UpdateURL: f.UpdateURL, Message: f.Message}, nil
	}

	var p platformManifest
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode version manifest: %w", err)
	}
	entry := p.Android
	if entry == nil || strings.EqualFold(platform, "ios") && p.IOS != nil {
		entry = p.IOS
	}
	if entry == nil {
		return nil, ErrManifestNoVersion
	}

	version := entry.VersionName
	if version == "" && entry.VersionCode != nil {
		version = strconv.FormatInt(*entry.VersionCode, 10)
	}
	if version == "" {
		return nil, ErrManifestNoVersion
	}
	return &VersionManifest{Version: version, Mandatory: entry.Mandatory, UpdateURL: entry.URL, Message: entry.Message}, nil
}

// CompareSemver compares the first three dot-separated numeric parts of a and
// b. Missing or non-numeric parts count as 0.
func CompareSemver(a, b string) int {
	pa, pb := semverParts(a), semverParts(b)
	for i := 0; i < 3; i++ {
		switch {
		case pa[i] > pb[i]:
			return 1
		case pa[i] < pb[i]:
			return -1
		}
	}
	return 0
}

func semverParts(v string) [3]int64 {
	var out [3]int64
	for i, part := range strings.SplitN(v, ".", 4) {
		if i == 3 {
			break
		}
		out[i] = leadingInt(strings.TrimSpace(part))
	}
	return out
}

func leadingInt(s string) int64 {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	raw []byte
	err error
}

func (s staticSource) Fetch(ctx context.Context) ([]byte, error) { return s.raw, s.err }

func TestCompareSemver(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.2.0", "1.1.9", 1},
		{"1.1.9", "1.2.0", -1},
		{"2", "1.9.9", 1},
		{"1.0", "1.0.0", 0},
		{"1.0.0-beta", "1.0.0", 0},
		{"1.0.1rc", "1.0.0", 1},
		{"x.y.z", "0.0.0", 0},
		{"1.2.3.4", "1.2.3", 0},
		{"", "0.0.1", -1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareSemver(tt.a, tt.b))
		})
	}
}

func TestNormalizeManifest(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		platform string
		want     *VersionManifest
		wantErr  error
	}{
		{
			name: "flat",
			raw:  `{"version":"1.4.0","mandatory":true,"updateUrl":"https://u","message":"update"}`,
			want: &VersionManifest{Version: "1.4.0", Mandatory: true, UpdateURL: "https://u", Message: "update"},
		},
		{
			name:    "flat without version",
			raw:     `{"version":""}`,
			wantErr: ErrManifestNoVersion,
		},
		{
			name:     "android entry",
			raw:      `{"android":{"versionName":"2.0.0","url":"https://a","mandatory":true},"ios":{"versionName":"3.0.0"}}`,
			platform: "android",
			want:     &VersionManifest{Version: "2.0.0", Mandatory: true, UpdateURL: "https://a"},
		},
		{
			name:     "ios entry",
			raw:      `{"android":{"versionName":"2.0.0"},"ios":{"versionName":"3.0.0","message":"hi"}}`,
			platform: "ios",
			want:     &VersionManifest{Version: "3.0.0", Message: "hi"},
		},
		{
			name:     "ios falls back to android",
			raw:      `{"android":{"versionCode":12}}`,
			platform: "ios",
			want:     &VersionManifest{Version: "12"},
		},
		{
			name:     "android falls back to ios",
			raw:      `{"ios":{"versionName":"1.1.0"}}`,
			platform: "android",
			want:     &VersionManifest{Version: "1.1.0"},
		},
		{
			name:    "no entries",
			raw:     `{}`,
			wantErr: ErrManifestNoVersion,
		},
		{
			name:    "entry without version",
			raw:     `{"android":{"url":"https://a"}}`,
			wantErr: ErrManifestNoVersion,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeManifest([]byte(tt.raw), tt.platform)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := NormalizeManifest([]byte("not json"), "")
	assert.ErrorContains(t, err, "decode version manifest")
}

func TestVersionService_Check(t *testing.T) {
	tests := []struct {
		name    string
		src     staticSource
		current string
		want    VersionStatus
	}{
		{name: "newer mandatory", src: staticSource{raw: []byte(`{"version":"1.1.0","mandatory":true}`)}, current: "1.0.0", want: VersionOutdated},
		{name: "newer optional", src: staticSource{raw: []byte(`{"version":"1.1.0"}`)}, current: "1.0.0", want: VersionOK},
		{name: "same mandatory", src: staticSource{raw: []byte(`{"version":"1.0.0","mandatory":true}`)}, current: "1.0.0", want: VersionOK},
		{name: "older mandatory", src: staticSource{raw: []byte(`{"version":"0.9.0","mandatory":true}`)}, current: "1.0.0", want: VersionOK},
		{name: "fetch error", src: staticSource{err: errors.New("offline")}, current: "1.0.0", want: VersionError},
		{name: "bad manifest", src: staticSource{raw: []byte(`{}`)}, current: "1.0.0", want: VersionError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NewVersionService(tt.src, tt.current, "android", 0).Check(context.Background())
			assert.Equal(t, tt.want, out.Status)
			if tt.want == VersionError {
				assert.Error(t, out.Err)
				assert.Nil(t, out.Manifest)
			} else {
				assert.NoError(t, out.Err)
				assert.NotNil(t, out.Manifest)
			}
		})
	}
}

type blockingSource struct{}

func (blockingSource) Fetch(ctx context.Context) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestVersionService_CheckTimesOut(t *testing.T) {
	out := NewVersionService(blockingSource{}, "1.0.0", "android", 20*time.Millisecond).Check(context.Background())
	assert.Equal(t, VersionError, out.Status)
	assert.ErrorIs(t, out.Err, context.DeadlineExceeded)
}

func TestHTTPManifestSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"version":"1.2.3","mandatory":true}`)
	}))
	defer srv.Close()

	src, err := NewManifestSource(srv.URL+"/version.json", S3Settings{}, srv.Client())
	require.NoError(t, err)
	require.IsType(t, &HTTPManifestSource{}, src)

	out := NewVersionService(src, "1.0.0", "", time.Second).Check(context.Background())
	assert.Equal(t, VersionOutdated, out.Status)
	assert.Equal(t, "1.2.3", out.Manifest.Version)

	missing, err := NewManifestSource(srv.URL+"/missing", S3Settings{}, srv.Client())
	require.NoError(t, err)
	_, err = missing.Fetch(context.Background())
	assert.ErrorContains(t, err, "404")
}

func TestNewManifestSource(t *testing.T) {
	src, err := NewManifestSource("s3://releases/app/version.json", S3Settings{Region: "eu-west-1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, &S3ManifestSource{Bucket: "releases", Key: "app/version.json", Settings: S3Settings{Region: "eu-west-1"}}, src)

	for _, bad := range []string{"ftp://host/file", "s3://bucket", "s3:///key", "::"} {
		_, err := NewManifestSource(bad, S3Settings{}, nil)
		assert.ErrorIs(t, err, ErrUnsupportedManifest, bad)
	}
}

func stubS3(t *testing.T) {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	origGet := getS3Object
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
		getS3Object = origGet
	})
}

func TestS3ManifestSource_Fetch(t *testing.T) {
	stubS3(t)

	var lo awsconfig.LoadOptions
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	var in *s3.GetObjectInput
	getS3Object = func(c *s3.Client, ctx context.Context, input *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		in = input
		return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(`{"version":"9.0.0"}`))}, nil
	}

	src := &S3ManifestSource{
		Bucket: "releases",
		Key:    "version.json",
		Settings: S3Settings{
			Region:       "us-east-1",
			BaseEndpoint: "http://127.0.0.1:9000",
			AccessKey:    "minioadmin",
			SecretKey:    "minioadmin",
		},
	}

	raw, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"9.0.0"}`, string(raw))

	assert.Equal(t, "us-east-1", lo.Region)
	require.NotNil(t, lo.Credentials)
	creds, err := lo.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "minioadmin", creds.AccessKeyID)

	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)

	require.NotNil(t, in)
	assert.Equal(t, "releases", aws.ToString(in.Bucket))
	assert.Equal(t, "version.json", aws.ToString(in.Key))
}

func TestS3ManifestSource_Errors(t *testing.T) {
	stubS3(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}
	src := &S3ManifestSource{Bucket: "b", Key: "k"}
	_, err := src.Fetch(context.Background())
	assert.ErrorContains(t, err, "load aws config: no config")

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}
	getS3Object = func(c *s3.Client, ctx context.Context, input *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		return nil, errors.New("access denied")
	}
	_, err = src.Fetch(context.Background())
	assert.ErrorContains(t, err, "get s3://b/k: access denied")
	assert.Nil(t, opts.BaseEndpoint)
	assert.False(t, opts.UsePathStyle)
}

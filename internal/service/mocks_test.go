package service

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/Beliver-247/photoBooth-server/internal/domain"
	"github.com/Beliver-247/photoBooth-server/pkg/assetstore"
	"github.com/Beliver-247/photoBooth-server/pkg/reelcache"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) SignUpload(timestamp int64, folder string) (string, error) {
	args := m.Called(timestamp, folder)
	return args.String(0), args.Error(1)
}

func (m *MockStore) BuildTransformURL(baseAssetID string, steps []assetstore.TransformStep) (string, error) {
	args := m.Called(baseAssetID, steps)
	return args.String(0), args.Error(1)
}

func (m *MockStore) Resolve(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

func (m *MockStore) FetchBytes(ctx context.Context, assetID string) ([]byte, error) {
	args := m.Called(ctx, assetID)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) Upload(ctx context.Context, data []byte, name, folder string) (string, error) {
	args := m.Called(ctx, data, name, folder)
	return args.String(0), args.Error(1)
}

func (m *MockStore) PublicURL(assetID string) (string, error) {
	args := m.Called(assetID)
	return args.String(0), args.Error(1)
}

func (m *MockStore) Credentials() assetstore.Credentials {
	args := m.Called()
	return args.Get(0).(assetstore.Credentials)
}

type MockReelGenerator struct {
	mock.Mock
}

func (m *MockReelGenerator) Generate(ctx context.Context, photoAssetIDs []string) (domain.GeneratedReel, error) {
	args := m.Called(ctx, photoAssetIDs)
	return args.Get(0).(domain.GeneratedReel), args.Error(1)
}

type fakeNotifier struct {
	mu    sync.Mutex
	err   error
	calls []string
}

func (f *fakeNotifier) SendDownloadLink(_ context.Context, to, downloadURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, to+" "+downloadURL)
	return f.err
}

func (f *fakeNotifier) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// sequenceSlugs hands out slugs in order and repeats the last one.
type sequenceSlugs struct {
	mu    sync.Mutex
	slugs []string
	next  int
}

func (s *sequenceSlugs) Generate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.next
	if i >= len(s.slugs) {
		i = len(s.slugs) - 1
	} else {
		s.next++
	}
	return s.slugs[i], nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]reelcache.Entry
	err     error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]reelcache.Entry{}}
}

func (c *fakeCache) Get(_ context.Context, slug string) (*reelcache.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	e, ok := c.entries[slug]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (c *fakeCache) Set(_ context.Context, slug string, entry reelcache.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.entries[slug] = entry
	return nil
}

func (c *fakeCache) Delete(_ context.Context, slug string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	delete(c.entries, slug)
	return nil
}

// gatedReels blocks every Generate call until a token arrives on release.
// Each call announces itself on started first.
type gatedReels struct {
	started chan []string
	release chan struct{}
}

func newGatedReels() *gatedReels {
	return &gatedReels{
		started: make(chan []string, 4),
		release: make(chan struct{}),
	}
}

func (g *gatedReels) Generate(ctx context.Context, ids []string) (domain.GeneratedReel, error) {
	g.started <- ids
	select {
	case <-g.release:
	case <-ctx.Done():
		return domain.GeneratedReel{}, ctx.Err()
	}
	return domain.GeneratedReel{
		AssetID:  domain.RemoteReelAssetID(ids[0]),
		URL:      "https://cdn.example/" + ids[0] + ".jpg",
		Strategy: domain.StrategyRemoteTransform,
	}, nil
}

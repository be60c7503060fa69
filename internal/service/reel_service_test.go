package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Beliver-247/photoBooth-server/internal/domain"
	"github.com/Beliver-247/photoBooth-server/pkg/assetstore"
	"github.com/Beliver-247/photoBooth-server/pkg/compositor"
)

var testLayout = domain.Layout{PhotoWidth: 160, PhotoHeight: 120, Margin: 32}

func solidPNG(t *testing.T, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, imaging.New(200, 150, c)))
	return buf.Bytes()
}

func newReelService(store assetstore.Store, timeout time.Duration) *ReelService {
	return NewReelService(store, compositor.New(testLayout), ReelConfig{
		Layout:  testLayout,
		Folder:  "photobooth",
		Timeout: timeout,
	}, zap.NewNop())
}

func TestRemoteTransformSteps(t *testing.T) {
	steps := RemoteTransformSteps(domain.DefaultLayout, []string{"p1", "photobooth/p2", "p3"})

	assert.Equal(t,
		"b_white,c_lpad,g_north,h_1960,w_880,y_40/"+
			"c_fill,h_600,w_800/"+
			"c_fill,g_north,h_600,l_photobooth:p2,w_800,y_680/"+
			"c_fill,g_north,h_600,l_p3,w_800,y_1320/"+
			"f_jpg",
		assetstore.Chain(steps))
}

func TestGenerateRejectsWrongCount(t *testing.T) {
	svc := newReelService(new(MockStore), time.Second)

	for _, ids := range [][]string{nil, {"p1"}, {"p1", "p2"}, {"p1", "p2", "p3", "p4"}} {
		_, err := svc.Generate(context.Background(), ids)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}
}

func TestGenerateRemoteTransform(t *testing.T) {
	store := new(MockStore)
	store.On("BuildTransformURL", "p1", mock.Anything).Return("https://cdn.example/reel.jpg", nil)
	store.On("Resolve", mock.Anything, "https://cdn.example/reel.jpg").Return(nil)

	reel, err := newReelService(store, time.Second).Generate(context.Background(), []string{"p1", "p2", "p3"})
	require.NoError(t, err)

	assert.Equal(t, "p1_reel", reel.AssetID)
	assert.Equal(t, "https://cdn.example/reel.jpg", reel.URL)
	assert.Equal(t, domain.StrategyRemoteTransform, reel.Strategy)
	store.AssertNotCalled(t, "FetchBytes", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateFallsBackToLocalComposite(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	green := color.NRGBA{G: 255, A: 255}
	blue := color.NRGBA{B: 255, A: 255}

	store := new(MockStore)
	store.On("BuildTransformURL", "p1", mock.Anything).Return("https://cdn.example/reel.jpg", nil)
	store.On("Resolve", mock.Anything, mock.Anything).Return(errors.New("asset store returned status 400: Invalid layer"))
	store.On("FetchBytes", mock.Anything, "p1").Return(solidPNG(t, red), nil)
	store.On("FetchBytes", mock.Anything, "p2").Return(solidPNG(t, green), nil)
	store.On("FetchBytes", mock.Anything, "p3").Return(solidPNG(t, blue), nil)

	var uploaded []byte
	store.On("Upload", mock.Anything, mock.Anything, mock.MatchedBy(func(name string) bool {
		return len(name) > len("reel_")
	}), "photobooth").
		Run(func(args mock.Arguments) { uploaded = args.Get(1).([]byte) }).
		Return("photobooth/reel_abc", nil)
	store.On("PublicURL", "photobooth/reel_abc").Return("https://cdn.example/photobooth/reel_abc", nil)

	reel, err := newReelService(store, time.Second).Generate(context.Background(), []string{"p1", "p2", "p3"})
	require.NoError(t, err)

	assert.Equal(t, "photobooth/reel_abc", reel.AssetID)
	assert.Equal(t, "https://cdn.example/photobooth/reel_abc", reel.URL)
	assert.Equal(t, domain.StrategyLocalComposite, reel.Strategy)

	img, err := imaging.Decode(bytes.NewReader(uploaded))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, testLayout.FinalWidth(), testLayout.FinalHeight()), img.Bounds())

	for i, want := range []color.NRGBA{red, green, blue} {
		slot := testLayout.Slot(i)
		got := color.NRGBAModel.Convert(img.At((slot.Min.X+slot.Max.X)/2, (slot.Min.Y+slot.Max.Y)/2)).(color.NRGBA)
		assert.InDelta(t, want.R, got.R, 24, "photo %d red", i)
		assert.InDelta(t, want.G, got.G, 24, "photo %d green", i)
		assert.InDelta(t, want.B, got.B, 24, "photo %d blue", i)
	}
}

func TestGenerateRemoteTimeoutFallsBack(t *testing.T) {
	store := new(MockStore)
	store.On("BuildTransformURL", "p1", mock.Anything).Return("https://cdn.example/slow.jpg", nil)
	store.On("Resolve", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { <-args.Get(0).(context.Context).Done() }).
		Return(context.DeadlineExceeded)
	white := solidPNG(t, color.White)
	store.On("FetchBytes", mock.Anything, mock.Anything).Return(white, nil)
	store.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("photobooth/reel_t", nil)
	store.On("PublicURL", "photobooth/reel_t").Return("https://cdn.example/photobooth/reel_t", nil)

	reel, err := newReelService(store, 30*time.Millisecond).Generate(context.Background(), []string{"p1", "p2", "p3"})
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyLocalComposite, reel.Strategy)
}

func TestGenerateBothStrategiesFail(t *testing.T) {
	fetchErr := errors.New("connection reset")

	store := new(MockStore)
	store.On("BuildTransformURL", "p1", mock.Anything).Return("https://cdn.example/reel.jpg", nil)
	store.On("Resolve", mock.Anything, mock.Anything).Return(assetstore.ErrAssetNotFound)
	store.On("FetchBytes", mock.Anything, "p1").Return([]byte("x"), nil)
	store.On("FetchBytes", mock.Anything, "p2").Return(nil, fetchErr)
	store.On("FetchBytes", mock.Anything, "p3").Return([]byte("x"), nil)

	_, err := newReelService(store, time.Second).Generate(context.Background(), []string{"p1", "p2", "p3"})
	require.Error(t, err)

	assert.ErrorIs(t, err, domain.ErrReelGenerationFailed)
	assert.ErrorIs(t, err, fetchErr)
	assert.NotErrorIs(t, err, assetstore.ErrAssetNotFound)
	store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateUploadFailure(t *testing.T) {
	store := new(MockStore)
	store.On("BuildTransformURL", "p1", mock.Anything).Return("", errors.New("bad id"))
	white := solidPNG(t, color.White)
	store.On("FetchBytes", mock.Anything, mock.Anything).Return(white, nil)
	store.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("quota exceeded"))

	_, err := newReelService(store, time.Second).Generate(context.Background(), []string{"p1", "p2", "p3"})
	assert.ErrorIs(t, err, domain.ErrReelGenerationFailed)
	assert.ErrorContains(t, err, "quota exceeded")
}

package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/snaplog/internal/client/client"
	"github.com/dmitrijs2005/snaplog/internal/client/models"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 400, 300))
	img.Set(10, 10, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestInventory_UploadStreamsProgressAndCaches(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()

	var events []UploadEvent
	for ev := range e.inventory().Upload(ctx, UploadRequest{Name: "photo.png", Data: pngBytes(t)}) {
		events = append(events, ev)
	}

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	require.True(t, last.Done)
	require.NoError(t, last.Err)
	assert.Equal(t, "obj-1", last.ID)
	for _, ev := range events[:len(events)-1] {
		assert.False(t, ev.Done)
		assert.GreaterOrEqual(t, ev.Progress, 0.0)
		assert.LessOrEqual(t, ev.Progress, 1.0)
	}

	require.Len(t, e.remote.uploads, 1)
	assert.Equal(t, "inv", e.remote.uploads[0].parent)
	assert.Equal(t, "image/png", e.remote.uploads[0].mimeType, "detected from content")

	item, ok, err := e.cache.GetInventoryItem(ctx, "obj-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.InventoryItem{ID: "obj-1", Name: "photo.png", MimeType: "image/png"}, *item)

	thumb, ok, err := e.cache.GetThumbnail(ctx, "obj-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{0xFF, 0xD8}, thumb.Data[:2], "thumbnails are JPEG")
}

func TestInventory_UploadKeepsGivenMimeTypeAndSkipsThumbnailForNonImages(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()

	var last UploadEvent
	for ev := range e.inventory().Upload(ctx, UploadRequest{Name: "notes.txt", MimeType: "text/plain", Data: []byte("hello")}) {
		last = ev
	}
	require.NoError(t, last.Err)

	assert.Equal(t, "text/plain", e.remote.uploads[0].mimeType)
	_, ok, err := e.cache.GetThumbnail(ctx, last.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInventory_UploadOffline(t *testing.T) {
	e := newEnv(t, false)

	var last UploadEvent
	for ev := range e.inventory().Upload(context.Background(), UploadRequest{Name: "a", Data: []byte("x")}) {
		last = ev
	}
	assert.True(t, last.Done)
	require.ErrorIs(t, last.Err, client.ErrNetwork)
	assert.Zero(t, e.remote.callCount())
}

func TestInventory_UploadManyReportsPerFile(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()
	failure := errors.New("quota exceeded")
	e.remote.failNames["b.txt"] = failure

	results := e.inventory().UploadMany(ctx, []UploadRequest{
		{Name: "a.txt", Data: []byte("a")},
		{Name: "b.txt", Data: []byte("b")},
		{Name: "c.txt", Data: []byte("c")},
	})

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, failure)
	assert.Empty(t, results[1].ID)
	assert.NoError(t, results[2].Err)

	items, err := e.cache.GetAllInventoryItems(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
	}
	assert.ElementsMatch(t, []string{"a.txt", "c.txt"}, names)
}

func TestInventory_ListOnlineAndOffline(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()
	e.remote.objects["inv"] = []models.RemoteObject{{ID: "i1", Name: "cup.jpg", MimeType: "image/jpeg"}}

	items, err := e.inventory().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.InventoryItem{{ID: "i1", Name: "cup.jpg", MimeType: "image/jpeg"}}, items)

	*e.conn = false
	require.NoError(t, e.cache.PutInventoryItem(ctx, models.InventoryItem{ID: "cached"}))
	calls := e.remote.callCount()
	items, err = e.inventory().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.InventoryItem{{ID: "cached"}}, items)
	assert.Equal(t, calls, e.remote.callCount())
}

func TestInventory_ThumbnailBackfill(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()
	e.remote.content["i1"] = pngBytes(t)

	thumb, err := e.inventory().Thumbnail(ctx, "i1")
	require.NoError(t, err)
	require.NotEmpty(t, thumb)

	*e.conn = false
	again, err := e.inventory().Thumbnail(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, thumb, again)

	_, err = e.inventory().Thumbnail(ctx, "missing")
	require.ErrorIs(t, err, client.ErrLocalDataNotAvailable)
}

func TestInventory_DeleteAndVerifyRemovesItemsAndThumbnails(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()
	svc := e.inventory()

	var id string
	for ev := range svc.Upload(ctx, UploadRequest{Name: "photo.png", Data: pngBytes(t)}) {
		id = ev.ID
	}
	require.NotEmpty(t, id)

	ok, err := svc.DeleteAndVerify(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	_, found, err := e.cache.GetInventoryItem(ctx, id)
	require.NoError(t, err)
	assert.False(t, found)
	_, found, err = e.cache.GetThumbnail(ctx, id)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInventory_DeleteNotConfirmed(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()
	e.remote.linger = true
	e.remote.objects["inv"] = []models.RemoteObject{{ID: "i1"}, {ID: "i2"}}
	require.NoError(t, e.cache.PutInventoryItem(ctx, models.InventoryItem{ID: "i1"}))

	ok, err := e.inventory().DeleteAndVerify(ctx, "i1", "i2")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"i1", "i2"}, e.remote.deleted)

	_, found, err := e.cache.GetInventoryItem(ctx, "i1")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestDetectMimeType(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
		want string
	}{
		{name: "sniffed png", file: "x.bin", data: pngBytes(t), want: "image/png"},
		{name: "plain text drops charset", file: "notes", data: []byte("hello world"), want: "text/plain"},
		{name: "extension fallback", file: "data.gif", data: []byte{0x00, 0x01, 0x02}, want: "image/gif"},
		{name: "unknown", file: "blob", data: []byte{0x00, 0x01, 0x02}, want: "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectMimeType(tt.file, tt.data))
		})
	}
}

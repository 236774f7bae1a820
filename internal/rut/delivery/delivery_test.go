package delivery

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"bayi-rut/internal/common/config"
	apperrors "bayi-rut/internal/common/errors"
	"bayi-rut/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type mockSharer struct {
	mock.Mock
}

func (m *mockSharer) Share(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDirectDownload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")
	d := NewDirectDownload(dir, logger.NewTestLogger(t))

	out, err := d.Deliver(context.Background(), []byte("one"), "rut_talep_5.xlsx")
	require.NoError(t, err)
	assert.Equal(t, MethodDownload, out.Method)
	assert.Equal(t, filepath.Join(dir, "rut_talep_5.xlsx"), out.Path)
	assert.Equal(t, 3, out.Bytes)

	data, err := os.ReadFile(out.Path)
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	second, err := d.Deliver(context.Background(), []byte("two"), "rut_talep_5.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "rut_talep_5 (1).xlsx", second.Filename, "existing file is kept")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestReservePath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.xlsx"), []byte("keep"), 0o600))

	first, err := reservePath(dir, "a.xlsx")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a (1).xlsx"), first)
	_, err = os.Stat(first)
	require.NoError(t, err, "the free name is claimed on disk")

	second, err := reservePath(dir, "a.xlsx")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a (2).xlsx"), second, "a claimed name is not handed out twice")

	data, err := os.ReadFile(filepath.Join(dir, "a.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))
}

func TestDirectDownload_DoesNotOverwriteReservedName(t *testing.T) {
	dir := t.TempDir()
	reserved, err := reservePath(dir, "b.xlsx")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(reserved, []byte("other writer"), 0o600))

	out, err := NewDirectDownload(dir, logger.NewNoOpLogger()).Deliver(context.Background(), []byte("mine"), "b.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "b (1).xlsx", out.Filename)

	data, err := os.ReadFile(reserved)
	require.NoError(t, err)
	assert.Equal(t, "other writer", string(data))
}

func TestDirectDownload_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDirectDownload(t.TempDir(), logger.NewNoOpLogger()).Deliver(ctx, []byte("x"), "a.xlsx")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeExportDelivery))
}

func TestDirectDownload_UnwritableDir(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := NewDirectDownload(filepath.Join(blocker, "sub"), logger.NewNoOpLogger()).
		Deliver(context.Background(), []byte("x"), "a.xlsx")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeExportDelivery))
}

func TestSaveAndShare(t *testing.T) {
	dir := t.TempDir()
	sharer := new(mockSharer)
	sharer.On("Share", mock.Anything, filepath.Join(dir, "a.xlsx")).Return(nil)

	out, err := NewSaveAndShare(dir, sharer, logger.NewTestLogger(t)).
		Deliver(context.Background(), []byte("data"), "a.xlsx")
	require.NoError(t, err)
	assert.Equal(t, MethodShare, out.Method)
	sharer.AssertExpectations(t)
}

func TestSaveAndShare_ShareFails(t *testing.T) {
	sharer := new(mockSharer)
	sharer.On("Share", mock.Anything, mock.Anything).Return(errors.New("cancelled by user"))

	_, err := NewSaveAndShare(t.TempDir(), sharer, logger.NewNoOpLogger()).
		Deliver(context.Background(), []byte("data"), "a.xlsx")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeExportDelivery))
	assert.Contains(t, err.Error(), "cancelled by user")
}

func TestExecSharer(t *testing.T) {
	err := NewExecSharer("").Share(context.Background(), "/tmp/x.xlsx")
	assert.ErrorIs(t, err, ErrShareUnavailable)

	err = NewExecSharer("definitely-not-a-share-tool-42").Share(context.Background(), "/tmp/x.xlsx")
	assert.ErrorIs(t, err, ErrShareUnavailable)

	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}
	assert.NoError(t, NewExecSharer("true --flag").Share(context.Background(), "/tmp/x.xlsx"))
}

func TestSelect(t *testing.T) {
	cfg := config.DeliveryConfig{DownloadDir: "dl", StorageDir: "st"}
	log := logger.NewNoOpLogger()

	tests := []struct {
		runtime string
		goos    string
		want    interface{}
	}{
		{config.RuntimeAuto, "linux", &DirectDownload{}},
		{config.RuntimeAuto, "android", &SaveAndShare{}},
		{"", "ios", &SaveAndShare{}},
		{config.RuntimeWeb, "android", &DirectDownload{}},
		{config.RuntimeMobile, "linux", &SaveAndShare{}},
	}
	for _, tt := range tests {
		cfg.Runtime = tt.runtime
		assert.IsType(t, tt.want, selectFor(cfg, tt.goos, log), "%s/%s", tt.runtime, tt.goos)
	}
}

func TestInspect(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"Sıra", "Müşteri Kodu", "Müşteri Adı"},
		{1, "A", "Alfa"},
		{2, "B", "Beta"},
	})

	info, err := Inspect(data)
	require.NoError(t, err)
	assert.Equal(t, "Sheet1", info.Sheet)
	assert.Equal(t, 3, info.Rows)
}

func TestInspect_Invalid(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":    nil,
		"not xlsx": []byte("<html>oops</html>"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Inspect(data)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeExportDelivery))
		})
	}
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "rut_talep_12.xlsx", Filename("", "12"))
	assert.Equal(t, "Rota Talebi.xlsx", Filename("Rota Talebi.xlsx", "12"))
	assert.Equal(t, "passwd.xlsx", Filename("../../etc/passwd", "12"))
	assert.Equal(t, "rut_talep.xlsx", Filename("", ""))
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"a.xlsx":          "a.xlsx",
		`..\..\win.xlsx`:  "win.xlsx",
		"a:b?.xlsx":       "a_b_.xlsx",
		"  spaced.xlsx  ": "spaced.xlsx",
		"..":              "",
		"":                "",
		"tab\there.xlsx":  "tab_here.xlsx",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeFilename(in), in)
	}
}

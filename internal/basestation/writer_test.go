package basestation

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go1090/internal/adsb"
	"go1090/internal/logging"
)

func newTestWriter(t *testing.T) (*Writer, string) {
	t.Helper()
	dir := t.TempDir()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	rotator, err := logging.NewLogRotator(dir, true, logger)
	require.NoError(t, err)
	t.Cleanup(func() { rotator.Close() })
	return NewWriter(rotator, logger), dir
}

func readLogFile(t *testing.T, dir string) string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(dir, "adsb_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	return string(data)
}

func TestWriteMessage_Surveillance(t *testing.T) {
	w, dir := newTestWriter(t)

	msg := &adsb.DecodedMessage{
		DF:       4,
		ICAO:     0x484412,
		Altitude: 35000,
	}

	require.NoError(t, w.WriteMessage(msg, Fix{}, false))

	line := readLogFile(t, dir)
	fields := strings.Split(strings.TrimSpace(line), ",")
	assert.Len(t, fields, 22)
	assert.Equal(t, "MSG", fields[0])
	assert.Equal(t, "5", fields[1])
	assert.Equal(t, "484412", fields[4])
	assert.Equal(t, "35000", fields[11])
}

func TestWriteMessage_Identification(t *testing.T) {
	w, dir := newTestWriter(t)

	msg := &adsb.DecodedMessage{
		DF:     17,
		ICAO:   0x4840D6,
		METype: 4,
		Flight: "TEST123 ",
	}

	require.NoError(t, w.WriteMessage(msg, Fix{}, false))

	line := readLogFile(t, dir)
	fields := strings.Split(strings.TrimSpace(line), ",")
	assert.Equal(t, "1", fields[1])
	assert.Equal(t, "TEST123", fields[10])
}

func TestWriteMessage_AirbornePositionWithFix(t *testing.T) {
	w, dir := newTestWriter(t)

	msg := &adsb.DecodedMessage{
		DF:       17,
		ICAO:     0x4840D6,
		METype:   11,
		Altitude: 38000,
	}

	require.NoError(t, w.WriteMessage(msg, Fix{Latitude: 51.5, Longitude: -0.12}, true))

	line := readLogFile(t, dir)
	fields := strings.Split(strings.TrimSpace(line), ",")
	assert.Equal(t, "3", fields[1])
	assert.Equal(t, "38000", fields[11])
	assert.Equal(t, "51.500000", fields[14])
	assert.Equal(t, "-0.120000", fields[15])
}

func TestWriteMessage_AllCallReply(t *testing.T) {
	w, dir := newTestWriter(t)

	msg := &adsb.DecodedMessage{DF: 11, ICAO: 0x4840D6}
	require.NoError(t, w.WriteMessage(msg, Fix{}, false))

	line := readLogFile(t, dir)
	fields := strings.Split(strings.TrimSpace(line), ",")
	assert.Equal(t, "8", fields[1])
}

func TestWriteMessage_UnsupportedDF(t *testing.T) {
	w, _ := newTestWriter(t)
	msg := &adsb.DecodedMessage{DF: 24}
	assert.NoError(t, w.WriteMessage(msg, Fix{}, false))
}

func TestWriteMessage_NilMessage(t *testing.T) {
	w, _ := newTestWriter(t)
	assert.Error(t, w.WriteMessage(nil, Fix{}, false))
}

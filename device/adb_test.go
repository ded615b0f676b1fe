package device

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	name string
	args []string
}

func fakeADB(t *testing.T, command string, output string, err error) (*ADB, *[]recordedCall) {
	a, nerr := NewADB("192.168.1.129", 5555, command)
	require.NoError(t, nerr)
	calls := &[]recordedCall{}
	a.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, recordedCall{name: name, args: args})
		return []byte(output), err
	}
	return a, calls
}

func TestADB_Volume(t *testing.T) {
	a, calls := fakeADB(t, "adb", "[v] Stream 3 \nvolume is 12 in range [0..100]\n", nil)

	v, err := a.Volume(context.Background())
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 12, *v)

	require.Len(t, *calls, 1)
	assert.Equal(t, "adb", (*calls)[0].name)
	assert.Equal(t,
		"-s 192.168.1.129:5555 shell media volume --stream 3 --get",
		strings.Join((*calls)[0].args, " "))
}

func TestADB_VolumeUnparseable(t *testing.T) {
	a, _ := fakeADB(t, "adb", "Error: no such stream", nil)

	v, err := a.Volume(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, v)
	assert.Equal(t, 0, Level(v))
}

func TestADB_VolumeErrorReconnects(t *testing.T) {
	a, calls := fakeADB(t, "adb", "", errors.New("device offline"))

	_, err := a.Volume(context.Background())
	assert.EqualError(t, err, "device offline")

	require.Len(t, *calls, 2)
	assert.Equal(t, []string{"connect", "192.168.1.129:5555"}, (*calls)[1].args)
}

func TestADB_StepsUseWrappedCommand(t *testing.T) {
	a, calls := fakeADB(t, `docker exec "adb tools" adb`, "", nil)

	require.NoError(t, a.VolumeUp(context.Background()))
	require.NoError(t, a.VolumeDown(context.Background()))

	require.Len(t, *calls, 2)
	assert.Equal(t, "docker", (*calls)[0].name)
	assert.Equal(t,
		[]string{"exec", "adb tools", "adb", "-s", "192.168.1.129:5555", "shell", "input", "keyevent", "KEYCODE_VOLUME_UP"},
		(*calls)[0].args)
	assert.Equal(t, "KEYCODE_VOLUME_DOWN", (*calls)[1].args[len((*calls)[1].args)-1])
}

func TestADB_Connect(t *testing.T) {
	a, _ := fakeADB(t, "adb", "connected to 192.168.1.129:5555\n", nil)
	assert.NoError(t, a.Connect(context.Background()))

	a, _ = fakeADB(t, "adb", "failed to connect to '192.168.1.129:5555': Connection refused\n", nil)
	assert.Error(t, a.Connect(context.Background()))
}

func TestNewADB_BadCommand(t *testing.T) {
	_, err := NewADB("tv", 5555, `adb "unterminated`)
	assert.Error(t, err)
}

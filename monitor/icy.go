package monitor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/marcus-crane/adbreak/utils"
)

var ErrNoMetadata = errors.New("stream does not send icy metadata")

// ICY reads the SHOUTcast/Icecast in-band metadata directly from the stream
// so no external binary is needed.
type ICY struct {
	URL    string
	Client *http.Client
}

func NewICY(url string) *ICY {
	return &ICY{URL: url, Client: utils.NewHTTPClient()}
}

func (i *ICY) Title(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.URL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Icy-MetaData", "1")

	res, err := i.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("stream returned %s", res.Status)
	}

	metaint, err := strconv.Atoi(res.Header.Get("icy-metaint"))
	if err != nil || metaint <= 0 {
		return "", ErrNoMetadata
	}

	r := bufio.NewReader(res.Body)
	if _, err := r.Discard(metaint); err != nil {
		return "", fmt.Errorf("failed to skip audio: %w", err)
	}
	length, err := r.ReadByte()
	if err != nil {
		return "", fmt.Errorf("failed to read metadata length: %w", err)
	}
	// The first block may be empty if the title has not changed recently
	if length == 0 {
		return "", nil
	}
	block := make([]byte, int(length)*16)
	if _, err := io.ReadFull(r, block); err != nil {
		return "", fmt.Errorf("failed to read metadata: %w", err)
	}
	return parseStreamTitle(string(block)), nil
}

// parseStreamTitle pulls the value out of a block like
// StreamTitle='Artist - Song';StreamUrl='';
func parseStreamTitle(block string) string {
	block = strings.TrimRight(block, "\x00")
	const key = "StreamTitle='"
	start := strings.Index(block, key)
	if start < 0 {
		return ""
	}
	rest := block[start+len(key):]
	end := strings.Index(rest, "';")
	if end < 0 {
		end = strings.LastIndex(rest, "'")
		if end < 0 {
			return rest
		}
	}
	return rest[:end]
}

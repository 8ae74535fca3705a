package babel

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type progressEvent struct {
	sent, total, expected int64
}

func recordProgress(g *progressGate) *[]progressEvent {
	var events []progressEvent

	g.set(func(sent, total, expected int64) {
		events = append(events, progressEvent{sent, total, expected})
	})

	return &events
}

func TestProgressReader(t *testing.T) {
	var g progressGate

	events := recordProgress(&g)
	g.start(10)

	r := &progressReader{r: io.LimitReader(strings.NewReader("0123456789"), 10), gate: &g}
	buf := make([]byte, 4)

	for {
		_, err := r.Read(buf)
		if err == io.EOF {
			break
		}

		require.NoError(t, err)
	}

	g.finish()

	assert.Equal(t, []progressEvent{{4, 4, 10}, {4, 8, 10}, {2, 10, 10}}, *events)
}

func TestProgressWriter_Closed(t *testing.T) {
	var (
		g   progressGate
		out bytes.Buffer
	)

	events := recordProgress(&g)
	g.start(-1)

	w := &progressWriter{w: &out, gate: &g}

	_, err := w.Write([]byte("abc"))
	require.NoError(t, err)

	g.close()

	_, err = w.Write([]byte("def"))
	require.NoError(t, err)
	g.finish()

	assert.Equal(t, "abcdef", out.String())
	assert.Equal(t, []progressEvent{{3, 3, -1}}, *events)
}

func TestProgressGate_FinishEmpty(t *testing.T) {
	var g progressGate

	events := recordProgress(&g)
	g.start(0)
	g.finish()
	g.finish()

	assert.Equal(t, []progressEvent{{0, 0, 0}}, *events)
}

func TestProgressGate_NoFunc(t *testing.T) {
	var g progressGate

	g.start(5)
	g.add(5)
	g.finish()

	// A late registration still sees the final total.
	events := recordProgress(&g)
	g.finish()

	assert.Equal(t, []progressEvent{{0, 5, 5}}, *events)
}

package mcp

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/pkg/command"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommand(t *testing.T) {
	b := canopy.New()
	s := NewServer(b)
	ctx := context.Background()

	resp, err := s.handleRunCommand(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"name": "elements/create",
		"args": `{"type":"section","props":{"padding":"8px"}}`,
	})
	require.NoError(t, err)
	assert.Equal(t, "elements/create", resp.Command)

	data, ok := resp.Result.(domain.ElementData)
	require.True(t, ok, "result should be element data, got %T", resp.Result)
	assert.Equal(t, "section", data.Type)
	v, _ := data.Props.Get("padding")
	assert.Equal(t, "8px", v)

	hist := b.History(command.HistoryFilter{Command: "elements/create"})
	require.Len(t, hist, 1)
	assert.Equal(t, "mcp", hist[0].Options.Source)
}

func TestRunCommand_Errors(t *testing.T) {
	s := NewServer(canopy.New())
	ctx := context.Background()

	_, err := s.handleRunCommand(ctx, mcp.CallToolRequest{}, map[string]interface{}{})
	assert.Error(t, err)

	_, err = s.handleRunCommand(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"name": "elements/create",
		"args": "{",
	})
	assert.ErrorContains(t, err, "invalid args")

	_, err = s.handleRunCommand(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"name": "elements/create",
		"args": `{}`,
	})
	assert.ErrorIs(t, err, command.ErrValidation)

	resp, err := s.handleRunCommand(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"name":   "elements/create",
		"args":   `{}`,
		"silent": "true",
	})
	require.NoError(t, err)
	assert.Nil(t, resp.Result)
}

func TestDetectDrop(t *testing.T) {
	s := NewServer(canopy.New())

	resp, err := s.handleDetectDrop(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"dragged_id": "d",
		"active":     `{"x":0,"y":0,"width":40,"height":40}`,
		"candidates": `[{"id":"box","rect":{"x":0,"y":0,"width":100,"height":100},"alive":true,"isContainer":true}]`,
	})
	require.NoError(t, err)
	require.True(t, resp.Found)
	assert.Equal(t, "box", resp.Result.Candidate.ID)

	resp, err = s.handleDetectDrop(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"dragged_id": "box",
		"active":     `{"x":0,"y":0,"width":40,"height":40}`,
		"candidates": `[{"id":"box","rect":{"x":0,"y":0,"width":100,"height":100},"alive":true,"isContainer":true}]`,
	})
	require.NoError(t, err)
	assert.False(t, resp.Found)

	_, err = s.handleDetectDrop(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"active": "nope",
	})
	assert.Error(t, err)
}

func TestReadJSON(t *testing.T) {
	b := canopy.New()
	_, err := b.CreateElement(context.Background(), "heading", nil, "")
	require.NoError(t, err)
	s := NewServer(b)

	contents, err := s.readJSON(DocumentURI, b.Serialize())
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, DocumentURI, text.URI)

	var doc domain.Document
	require.NoError(t, json.Unmarshal([]byte(text.Text), &doc))
	assert.Equal(t, b.DocumentID(), doc.ID)
	require.Len(t, doc.Elements, 1)
	assert.Equal(t, "heading", doc.Elements[0].Type)
}

func TestSummarize(t *testing.T) {
	node := domain.New("text")
	out := summarize([]command.Execution{{Result: node}, {Result: 3}})
	assert.Equal(t, map[string]any{"id": node.ID()}, out[0].Result)
	assert.Equal(t, 3, out[1].Result)
}

func TestServeSSE_StopsOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	s := NewServer(canopy.New())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ServeSSE(ctx, port) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1:" + strconv.Itoa(port) + "/message")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return true
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ServeSSE did not return after cancel")
	}
}

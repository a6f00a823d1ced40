package tools

import (
	"context"
	"sync"
)

// MediaAttachment is a video queued for delivery alongside the reply text.
type MediaAttachment struct {
	URL     string
	Caption string
}

// MediaQueue collects at most one attachment per processing turn. Tools
// queue into it during the loop; the loop drains it when composing the
// final reply.
type MediaQueue struct {
	mu      sync.Mutex
	pending *MediaAttachment
}

// NewMediaQueue creates an empty queue.
func NewMediaQueue() *MediaQueue {
	return &MediaQueue{}
}

// Queue stores an attachment, replacing any previous one.
func (q *MediaQueue) Queue(url, caption string) {
	if url == "" {
		return
	}
	if caption == "" {
		caption = "Video"
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = &MediaAttachment{URL: url, Caption: caption}
}

// Take returns the queued attachment and clears the queue.
func (q *MediaQueue) Take() *MediaAttachment {
	q.mu.Lock()
	defer q.mu.Unlock()
	media := q.pending
	q.pending = nil
	return media
}

// SendVideoTool queues a video for the transport to attach to the reply.
type SendVideoTool struct {
	queue *MediaQueue
}

// NewSendVideoTool creates the send_video tool backed by the given queue.
func NewSendVideoTool(queue *MediaQueue) *SendVideoTool {
	return &SendVideoTool{queue: queue}
}

// Definition implements Tool.
func (t *SendVideoTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "send_video",
		Description: "Send a video file directly in the chat. Use when user wants to see/preview a video.",
		InputSchema: objectSchema([]string{"video_url"}, map[string]Property{
			"video_url": {Type: "string", Description: "URL of the video to send"},
			"caption":   {Type: "string", Description: "Caption for the video"},
		}),
	}
}

// RequiresApproval implements Tool.
func (t *SendVideoTool) RequiresApproval() bool { return false }

// Exec implements Tool.
func (t *SendVideoTool) Exec(_ context.Context, args map[string]any) (string, error) {
	videoURL, err := StringArg(args, "video_url")
	if err != nil {
		return "", err
	}
	t.queue.Queue(videoURL, OptionalStringArg(args, "caption", ""))

	preview := videoURL
	if len(preview) > 50 {
		preview = preview[:50] + "..."
	}
	return "Video queued for sending: " + preview, nil
}

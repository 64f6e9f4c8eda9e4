package dto

type SettingsPatch struct {
	CaptureInterval *float64 `json:"captureInterval,omitempty" example:"10"`
	Temperature     *float64 `json:"temperature,omitempty" example:"0.7"`
	TopK            *int     `json:"topK,omitempty" example:"40"`
	TopP            *float64 `json:"topP,omitempty" example:"0.95"`
	Model           *string  `json:"model,omitempty" example:"gpt-4o"`
	RemoteURL       *string  `json:"remoteUrl,omitempty" example:"http://localhost:8080/v1/chat/completions"`
	APIKey          *string  `json:"apiKey,omitempty" example:"sk-local"`
}

type SettingsResponse struct {
	CaptureInterval float64 `json:"captureInterval" example:"10"`
	Temperature     float64 `json:"temperature" example:"0.7"`
	TopK            int     `json:"topK" example:"40"`
	TopP            float64 `json:"topP" example:"0.95"`
	Model           string  `json:"model" example:"gpt-4o"`
	RemoteURL       string  `json:"remoteUrl" example:"http://localhost:8080/v1/chat/completions"`
	APIKey          string  `json:"apiKey,omitempty" example:"********"`
}

type PromptsRequest struct {
	System   string `json:"system,omitempty"`
	Interval string `json:"interval,omitempty" example:"Comment on what is happening right now."`
	Chat     string `json:"chat,omitempty" example:"Answer the viewer's question."`
}

type CreateWidgetRequest struct {
	Mode              string          `json:"mode" example:"screen-capture" enums:"screen-capture,external"`
	Origin            string          `json:"origin,omitempty" example:"https://example.com"`
	Settings          *SettingsPatch  `json:"config,omitempty"`
	Prompts           *PromptsRequest `json:"prompts,omitempty"`
	Context           map[string]any  `json:"contextData,omitempty" swaggertype:"object"`
	Usernames         []string        `json:"usernames,omitempty" example:"PixelPirate,ByteBard"`
	Transform         string          `json:"transform,omitempty" example:"json-messages"`
	ExternalSourceURL string          `json:"externalSourceUrl,omitempty" example:"http://localhost:9000/frame"`
}

type LoadingResponse struct {
	Status   string  `json:"status" example:"ready" enums:"idle,loading,ready,error"`
	Message  string  `json:"message,omitempty" example:"Loading model weights"`
	Progress float64 `json:"progress,omitempty" example:"0.5"`
}

type WidgetResponse struct {
	ID         string          `json:"id" example:"wgt_abc123"`
	Mode       string          `json:"mode" example:"screen-capture"`
	Origin     string          `json:"origin,omitempty" example:"https://example.com"`
	Capturing  bool            `json:"capturing" example:"true"`
	Starting   bool            `json:"starting" example:"false"`
	Generating bool            `json:"generating" example:"false"`
	Loading    LoadingResponse `json:"loading"`
	Queued     int             `json:"queued" example:"2"`
	Seen       int             `json:"seen" example:"14"`
	LastError  string          `json:"last_error,omitempty" example:"Permission denied or cancelled."`
}

type WidgetListResponse struct {
	Widgets []WidgetResponse `json:"widgets"`
}

type ChatMessageResponse struct {
	ID         string `json:"id" example:"5b0c1d0e-8a57-4e0a-9b43-2cf1b1f7c2a1"`
	Username   string `json:"username" example:"PixelPirate"`
	Color      string `json:"color" example:"#ff79c6"`
	Text       string `json:"text" example:"that combo was clean"`
	Attachment string `json:"attachment,omitempty" example:"/9j/4AAQSkZJRg..."`
}

type MessageListResponse struct {
	Messages []ChatMessageResponse `json:"messages"`
}

type SendMessageRequest struct {
	Text string `json:"text" example:"what do you think of this level?"`
}

type ContextRequest struct {
	Data map[string]any `json:"data" swaggertype:"object"`
}

type ContextResponse struct {
	Data map[string]any `json:"data" swaggertype:"object"`
}

type QueuedCommentResponse struct {
	Text       string `json:"text" example:"no way he makes that jump"`
	Attachment string `json:"attachment,omitempty" example:"/9j/4AAQSkZJRg..."`
}

type QueueResponse struct {
	Comments []QueuedCommentResponse `json:"comments"`
	InFlight int                     `json:"inFlight" example:"1"`
}

type ScreenshareOfferRequest struct {
	SDP string `json:"sdp" example:"v=0\r\no=- 4611731400430051336 2 IN IP4 127.0.0.1..."`
}

type ScreenshareAnswerResponse struct {
	SDP string `json:"sdp" example:"v=0\r\no=- 1 2 IN IP4 0.0.0.0..."`
}

// WidgetCommand is sent by the page over the widget's websocket.
type WidgetCommand struct {
	Type     string         `json:"type" example:"send_message" enums:"toggle_capture,send_message,set_context,update_settings"`
	Text     string         `json:"text,omitempty" example:"nice jump"`
	Data     map[string]any `json:"data,omitempty" swaggertype:"object"`
	Settings *SettingsPatch `json:"settings,omitempty"`
}

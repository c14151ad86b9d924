package telegram

import (
	"context"
	"testing"
)

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name     string
		botToken string
		chatID   string
		wantErr  bool
	}{
		{"valid credentials", "test-token", "12345", false},
		{"missing bot token", "", "12345", true},
		{"missing chat ID", "test-token", "", true},
		{"both missing", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.botToken, tt.chatID)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewClient() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && client == nil {
				t.Error("NewClient() returned nil client without error")
			}
		})
	}
}

func TestSendMessage_Validation(t *testing.T) {
	client, err := NewClient("test-token", "12345")
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if err := client.SendMessage(context.Background(), ""); err == nil {
		t.Error("SendMessage() expected error for empty text")
	}

	long := make([]rune, maxMessageLength+1)
	for i := range long {
		long[i] = 'x'
	}
	if err := client.SendMessage(context.Background(), string(long)); err == nil {
		t.Error("SendMessage() expected error for oversized text")
	}
}

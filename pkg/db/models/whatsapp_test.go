package models

import "testing"

func TestWhatsAppTableNamesMatchSchema(t *testing.T) {
	if got := (WhatsAppInstance{}).TableName(); got != "whatsapp_instances" {
		t.Fatalf("instance table name %q", got)
	}
	if got := (WhatsAppMessage{}).TableName(); got != "whatsapp_messages" {
		t.Fatalf("message table name %q", got)
	}
}

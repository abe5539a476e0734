package dispatch

import (
	"testing"

	"github.com/bashchat/bashchatd/internal/state"
	"github.com/bashchat/bashchatd/internal/wire"
)

func decode(t *testing.T, raw string) *wire.Frame {
	t.Helper()
	f, err := wire.Decode([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return f
}

func TestDispatchRoutesInboundFrames(t *testing.T) {
	store := state.New(nil, nil)
	d := New(store, nil)

	d.Dispatch(decode(t, `{"source":"friend.list","data":[{"id":1,"friend":{"username":"alice","name":"Alice"},"preview":"hey","updated":"2024-03-10T12:00:00Z"}]}`))
	friends, loaded := store.Friends()
	if !loaded || len(friends) != 1 || friends[0].Friend.Username != "alice" {
		t.Fatalf("friends = %+v loaded = %v", friends, loaded)
	}

	d.Dispatch(decode(t, `{"source":"message.list","data":{"messages":[{"id":1,"is_me":false,"text":"hi","created":"2024-03-10T12:00:00Z"}],"next":null,"friend":{"username":"alice","connection_id":7}}}`))
	msgs := store.Messages()
	if len(msgs) != 1 || msgs[0].Text != "hi" {
		t.Fatalf("messages = %+v", msgs)
	}
	if store.Active().ID != 7 {
		t.Errorf("active id = %d, want 7", store.Active().ID)
	}

	d.Dispatch(decode(t, `{"source":"message.type","data":{"username":"alice"}}`))
	d.Dispatch(decode(t, `{"source":"message.seen","data":{"id":1}}`))
	msgs = store.Messages()
	if !msgs[0].Seen || !msgs[0].Delivered {
		t.Errorf("seen frame not applied: %+v", msgs[0])
	}

	d.Dispatch(decode(t, `{"source":"message.deleted","data":{"messageId":1}}`))
	if msgs := store.Messages(); len(msgs) != 0 {
		t.Errorf("deleted frame not applied: %+v", msgs)
	}

	d.Dispatch(decode(t, `{"source":"thumbnail","data":{"username":"me","thumbnail":"/media/me.png"}}`))
	if store.User().Thumbnail != "/media/me.png" {
		t.Errorf("user = %+v", store.User())
	}
}

func TestDispatchEchoNormalizesMessage(t *testing.T) {
	store := state.New(nil, nil)
	d := New(store, nil)

	d.Dispatch(decode(t, `{"source":"message.list","data":{"messages":[],"next":null,"friend":{"username":"alice","connection_id":7}}}`))
	d.Dispatch(decode(t, `{"source":"message.send","data":{"message":{"id":9,"is_me":true,"text":"yo","seen":true,"waveform":null},"friend":{"username":"alice"}}}`))

	msgs := store.Messages()
	if len(msgs) != 1 {
		t.Fatalf("messages = %+v", msgs)
	}
	if msgs[0].Waveform == nil || len(msgs[0].Waveform) != 0 {
		t.Errorf("waveform = %v, want empty slice", msgs[0].Waveform)
	}
	if !msgs[0].Delivered {
		t.Error("seen message must be delivered")
	}
}

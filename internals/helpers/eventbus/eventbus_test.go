package eventbus

import "testing"

func TestPublishReachesSubscribersInOrder(t *testing.T) {
	b := New()
	var order []int
	b.Subscribe("x", func(Event) { order = append(order, 1) })
	b.Subscribe("x", func(Event) { order = append(order, 2) })
	b.Subscribe("y", func(Event) { order = append(order, 99) })

	b.Publish(Event{Name: "x", Payload: "p"})

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("handler x harus jalan urut, dapat %v", order)
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	b := New()
	b.Publish(Event{Name: "nobody"})
}

func TestPanicInHandlerDoesNotStopOthers(t *testing.T) {
	b := New()
	ran := false
	b.Subscribe("x", func(Event) { panic("boom") })
	b.Subscribe("x", func(Event) { ran = true })

	b.Publish(Event{Name: "x"})

	if !ran {
		t.Fatal("handler setelah panic harus tetap jalan")
	}
}

// Package mockclient talks to the protocol mock over MQTT.
//
// Each call publishes a RequestMessage on melsecmock/request/{id} and waits
// for the ResponseMessage with the same request ID on
// melsecmock/response/{id}. Request IDs are "req-" followed by a UUID.
// Pushed register updates arrive on melsecmock/event/monitor and the
// server's status text on melsecmock/event/server-status.
//
// Client implements monitor.Remote and monitor.PushChannel. Offline is a
// stand-in used when the broker cannot be reached at startup: every call
// fails and push updates are unavailable, so the monitor polls.
//
// Usage:
//
//	client := mockclient.New(mqttClient, mockclient.Options{Timeout: 5 * time.Second})
//	if err := client.Start(); err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	words, err := client.GetWords(ctx, "D", 0, 30)
package mockclient

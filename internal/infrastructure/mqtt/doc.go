// Package mqtt connects melsecmon to the broker in front of the protocol mock.
//
// The mock bridge speaks a request/response protocol over MQTT
// (melsecmock/request/{id} and melsecmock/response/{id}) and pushes live
// word updates and status text on melsecmock/event/*. This package only
// owns the connection: auto-reconnect, subscription replay, panic-safe
// handler dispatch, and the melsecmon/system/status presence topic with
// its Last Will. Message formats live in the mockclient package.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.MonitorEvents(), 1,
//	    func(topic string, payload []byte) error {
//	        return handle(payload)
//	    })
package mqtt

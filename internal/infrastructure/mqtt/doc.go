// Package mqtt connects the EMS gateway to an MQTT broker.
//
// The broker links the gateway to two kinds of peers: the bus transport,
// which publishes received frames on {prefix}/raw/rx and sends whatever
// appears on {prefix}/raw/tx, and the consumers of decoded state, which
// read {prefix}/state/# and write {prefix}/command/{address}.
//
//	bus transport ↔ broker ↔ gateway ↔ broker ↔ consumers
//
// The client reconnects with exponential backoff, restores subscriptions
// and keeps a retained online/offline document on {prefix}/status backed
// by a Last Will.
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(client.Topics().RawRx(), 1,
//	    func(topic string, payload []byte) error {
//	        return handleFrame(payload)
//	    })
package mqtt

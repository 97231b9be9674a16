// Package mq defines the driver-neutral surface of an IBM MQ client connection.
//
// A Driver establishes client-mode channel connections to queue managers. Each
// QueueManager opens Queues for one operation at a time; callers must Close every
// Queue they open and Disconnect every QueueManager they connect.
//
// Failures reported by the queue manager are returned as *Error carrying the MQI
// completion and reason codes. TranslateConnectError and TranslateQueueError turn
// those codes into human-readable messages.
package mq

// Package ibmmq implements mq.Driver on top of the IBM MQ client library through
// github.com/ibm-messaging/mq-golang/v5.
//
// The binding uses cgo and needs the MQ redistributable client at build and run
// time, so the real driver is only compiled with the "ibmmq" build tag. Builds
// without the tag get a driver whose Connect returns ErrUnavailable.
package ibmmq

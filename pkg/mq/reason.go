package mq

import "strconv"

// Reason is an MQI reason code (MQRC_*).
type Reason int32

// Reason codes surfaced or interpreted by this module.
const (
	RCNone                    Reason = 0
	RCConnectionBroken        Reason = 2009
	RCHconnError              Reason = 2018
	RCHobjError               Reason = 2019
	RCGetInhibited            Reason = 2016
	RCMsgTooBigForQ           Reason = 2030
	RCNoMsgAvailable          Reason = 2033
	RCNotAuthorized           Reason = 2035
	RCNotOpenForBrowse        Reason = 2036
	RCNotOpenForInput         Reason = 2037
	RCNotOpenForOutput        Reason = 2039
	RCObjectInUse             Reason = 2042
	RCPutInhibited            Reason = 2051
	RCQFull                   Reason = 2053
	RCQMgrNameError           Reason = 2058
	RCQMgrNotAvailable        Reason = 2059
	RCSecurityError           Reason = 2063
	RCTruncatedMsgFailed      Reason = 2080
	RCUnknownObjectName       Reason = 2085
	RCQMgrQuiescing           Reason = 2161
	RCConnectionQuiescing     Reason = 2202
	RCConnectionNotAuthorized Reason = 2217
	RCSSLInitializationError  Reason = 2393
	RCHostNotAvailable        Reason = 2538
	RCChannelConfigError      Reason = 2539
	RCUnknownChannelName      Reason = 2540
)

var reasonNames = map[Reason]string{
	RCNone:                    "MQRC_NONE",
	RCConnectionBroken:        "MQRC_CONNECTION_BROKEN",
	RCHconnError:              "MQRC_HCONN_ERROR",
	RCHobjError:               "MQRC_HOBJ_ERROR",
	RCGetInhibited:            "MQRC_GET_INHIBITED",
	RCMsgTooBigForQ:           "MQRC_MSG_TOO_BIG_FOR_Q",
	RCNoMsgAvailable:          "MQRC_NO_MSG_AVAILABLE",
	RCNotAuthorized:           "MQRC_NOT_AUTHORIZED",
	RCNotOpenForBrowse:        "MQRC_NOT_OPEN_FOR_BROWSE",
	RCNotOpenForInput:         "MQRC_NOT_OPEN_FOR_INPUT",
	RCNotOpenForOutput:        "MQRC_NOT_OPEN_FOR_OUTPUT",
	RCObjectInUse:             "MQRC_OBJECT_IN_USE",
	RCPutInhibited:            "MQRC_PUT_INHIBITED",
	RCQFull:                   "MQRC_Q_FULL",
	RCQMgrNameError:           "MQRC_Q_MGR_NAME_ERROR",
	RCQMgrNotAvailable:        "MQRC_Q_MGR_NOT_AVAILABLE",
	RCSecurityError:           "MQRC_SECURITY_ERROR",
	RCTruncatedMsgFailed:      "MQRC_TRUNCATED_MSG_FAILED",
	RCUnknownObjectName:       "MQRC_UNKNOWN_OBJECT_NAME",
	RCQMgrQuiescing:           "MQRC_Q_MGR_QUIESCING",
	RCConnectionQuiescing:     "MQRC_CONNECTION_QUIESCING",
	RCConnectionNotAuthorized: "MQRC_CONNECTION_NOT_AUTHORIZED",
	RCSSLInitializationError:  "MQRC_SSL_INITIALIZATION_ERROR",
	RCHostNotAvailable:        "MQRC_HOST_NOT_AVAILABLE",
	RCChannelConfigError:      "MQRC_CHANNEL_CONFIG_ERROR",
	RCUnknownChannelName:      "MQRC_UNKNOWN_CHANNEL_NAME",
}

// String returns the MQRC_* constant name, or the numeric code when unknown.
func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return strconv.Itoa(int(r))
}

// CompCode is an MQI completion code (MQCC_*).
type CompCode int32

const (
	CCOK      CompCode = 0
	CCWarning CompCode = 1
	CCFailed  CompCode = 2
)

func (c CompCode) String() string {
	switch c {
	case CCOK:
		return "MQCC_OK"
	case CCWarning:
		return "MQCC_WARNING"
	case CCFailed:
		return "MQCC_FAILED"
	default:
		return strconv.Itoa(int(c))
	}
}

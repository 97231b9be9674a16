package keywords

// Intro is the library-level documentation.
const Intro = `A library for IBM MQ integration with multi-alias connection support.

This library enables easy interaction with IBM MQ message queues from Robot Framework.

It supports multiple simultaneous connections to different queue managers through aliases.
If only one connection is used, the alias argument can be omitted (defaults to "default").

MQ server and MQ client must use compatible code pages.
If code pages are not compatible error ` + "`2539: MQRC_CHANNEL_CONFIG_ERROR`" + ` will occur.
If the client uses codepage 65001 (the Windows equivalent of UTF-8) and the server uses codepage 850
the channel name will not be found and the connection will fail.
Forcing the client code page can be done with the ` + "`chcp`" + ` command,
for example ` + "`chcp 437`" + ` to use the default ASCII code page.

=== Examples ===
| ` + "`Connect MQ`" + `    queue_manager=QM1
| ...    hostname=localhost
| ...    port=1414
| ...    channel=DEV.APP.SVRCONN
| ...    username=%{USERNAME}
| ...    password=%{PASSWORD}
| ` + "`Put MQ Message`" + `    queue=QUEUE.TEST    message=Hello
| ${messages}     ` + "`Get MQ Messages`" + `    queue=QUEUE.TEST    message_amount=1
| ` + "`Clear MQ Queue`" + `    queue=QUEUE.TEST
| ` + "`Disconnect MQ`"

const connectDoc = `Connects to the remote queue manager and stores it under an alias.

| =Argument=        | =Description=                           |
| ` + "``queue_manager``" + ` | Name of the queue manager               |
| ` + "``hostname``" + `      | Hostname of the MQ server               |
| ` + "``port``" + `          | Port used to connect                    |
| ` + "``channel``" + `       | Channel name used for communication     |
| ` + "``username``" + `      | Username for authentication (optional)  |
| ` + "``password``" + `      | Password for authentication (optional)  |
| ` + "``alias``" + `         | Connection alias (default = "default")  |

Fails when the alias is already connected.

=== Example ===
| ` + "`Connect MQ`" + `    queue_manager=QM1
| ...    hostname=localhost
| ...    port=1414
| ...    channel=DEV.APP.SVRCONN
| ...    username=%{USERNAME}
| ...    password=%{PASSWORD}`

const putDoc = `Puts a message onto the target queue.

| =Argument=  | =Description=                         |
| ` + "``queue``" + `   | Name of the target queue              |
| ` + "``message``" + ` | Message content to put on the queue   |
| ` + "``ccsid``" + `   | Character encoding set (default 1208) |
| ` + "``alias``" + `   | Alias of the MQ connection            |

=== Example ===
| ` + "`Put MQ Message`" + `    queue=QUEUE.TEST    message=Hello World`

const getDoc = `Retrieves messages from a queue and returns them as a list.
Removes the messages from the queue on retrieval.

| =Argument=         | =Description=                                       |
| ` + "``queue``" + `          | Queue to read messages from                         |
| ` + "``message_amount``" + ` | Number of messages to retrieve, fails if it doesn't |
| ` + "``convert``" + `        | Convert message (MQGMO_CONVERT) if True             |
| ` + "``timeout``" + `        | Timeout per message as a time string (default = 0)  |
| ` + "``alias``" + `          | Alias of the MQ connection (default = "default")    |

=== Example ===
| ${msgs}    ` + "`Get MQ Messages`" + `    queue=QUEUE.TEST    message_amount=5    timeout=2`

const browseDoc = `Browses for messages on ` + "``queue``" + ` and returns them in a list.
Doesn't delete a message after being browsed.

| =Argument=        | =Description=                                      |
| ` + "``queue``" + `         | Queue to listen on                                 |
| ` + "``max_messages``" + `  | Maximum number of messages it tries to retrieve    |
| ` + "``timeout``" + `       | Timeout per message as a time string (default 5s)  |
| ` + "``convert``" + `       | Convert message encoding if True                   |
| ` + "``alias``" + `         | MQ connection alias (default = "default")          |

=== Example ===
| ${msgs}    ` + "`Browse MQ Messages`" + `    queue=QUEUE.TEST    max_messages=3`

const clearDoc = `Removes all messages from a queue immediately without waiting.
Returns the number of removed messages and fails if the queue is not empty afterwards.

| =Argument=     | =Description=                                  |
| ` + "``queue``" + `      | The queue to clear                             |
| ` + "``alias``" + `      | MQ connection alias (default = "default")      |

=== Example ===
| ` + "`Clear MQ Queue`" + `    queue=QUEUE.TEST`

const disconnectDoc = `Disconnects a specific MQ connection using alias.`

const disconnectAllDoc = `Disconnects all active MQ connections.`

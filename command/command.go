// Package command defines the closed set of Redis command names the client
// package knows how to serialize and dispatch.
package command

import (
	"fmt"
	"strings"
)

// Command identifies a Redis command by name. The zero value is invalid;
// use one of the exported constants.
type Command int

const (
	Invalid Command = iota

	Hello
	Ping
	Quit
	Auth

	Get
	Set
	Append
	Del
	Incr

	RPush
	LPush
	LPop
	LLen
	LRange
	LTrim

	HSet
	HGet
	HGetAll
	HDel
	HIncrBy

	SAdd
	SMembers

	ZAdd
	ZRange
	ZRangeByScore
	ZRemRangeByScore

	Subscribe
	Unsubscribe
	Publish
	Message

	Multi
	Exec
	Discard

	FlushAll
	FlushDB
)

var names = map[Command]string{
	Hello:             "HELLO",
	Ping:              "PING",
	Quit:              "QUIT",
	Auth:              "AUTH",
	Get:               "GET",
	Set:               "SET",
	Append:            "APPEND",
	Del:               "DEL",
	Incr:              "INCR",
	RPush:             "RPUSH",
	LPush:             "LPUSH",
	LPop:              "LPOP",
	LLen:              "LLEN",
	LRange:            "LRANGE",
	LTrim:             "LTRIM",
	HSet:              "HSET",
	HGet:              "HGET",
	HGetAll:           "HGETALL",
	HDel:              "HDEL",
	HIncrBy:           "HINCRBY",
	SAdd:              "SADD",
	SMembers:          "SMEMBERS",
	ZAdd:              "ZADD",
	ZRange:            "ZRANGE",
	ZRangeByScore:     "ZRANGEBYSCORE",
	ZRemRangeByScore:  "ZREMRANGEBYSCORE",
	Subscribe:         "SUBSCRIBE",
	Unsubscribe:       "UNSUBSCRIBE",
	Publish:           "PUBLISH",
	Message:           "MESSAGE",
	Multi:             "MULTI",
	Exec:              "EXEC",
	Discard:           "DISCARD",
	FlushAll:          "FLUSHALL",
	FlushDB:           "FLUSHDB",
}

// String returns the wire name of c, as sent in the command's first array
// element (e.g. "HGETALL"). It panics if c is not one of the constants
// defined by this package, since that indicates a programming error rather
// than something a caller can recover from.
func (c Command) String() string {
	name, ok := names[c]
	if !ok {
		panic(fmt.Sprintf("command: unknown command %d", int(c)))
	}
	return name
}

var byName = func() map[string]Command {
	m := make(map[string]Command, len(names))
	for c, name := range names {
		m[name] = c
	}
	return m
}()

// Lookup returns the Command whose wire name is name, matched
// case-insensitively as the wire protocol allows. It reports false if name
// does not match any known command.
func Lookup(name string) (Command, bool) {
	c, ok := byName[strings.ToUpper(name)]
	return c, ok
}

// pushSubscriptions holds the commands that put a connection into, or take
// it out of, the subscribed state, per the Redis pub/sub protocol.
var pushSubscriptions = map[Command]bool{
	Subscribe:   true,
	Unsubscribe: true,
}

// SwitchesSubscriptionState reports whether c changes the set of channels a
// connection is subscribed to. Replies to these commands are themselves
// delivered as push messages rather than as ordinary in-order replies.
func (c Command) SwitchesSubscriptionState() bool {
	return pushSubscriptions[c]
}

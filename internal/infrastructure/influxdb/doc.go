// Package influxdb records register history to InfluxDB v2.
//
// It is optional (influxdb.enabled). When enabled the monitor engine calls
// RecordWord for every word it stores and RecordWrite for every user edit.
// Points are batched by the client library and written in the background:
//
//	register_words,key=D,address=100 value=4660i
//	register_writes,key=D,address=100,format=F32 words="0,16256",count=2i
//
// Client satisfies monitor.History.
package influxdb

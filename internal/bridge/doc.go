// Package bridge connects an irrigation controller to MQTT and InfluxDB.
//
// On every tick of its cron schedule the bridge reads the device (zones,
// current schedule, current conditions and forecast, concurrently), publishes
// a retained StateMessage when anything changed and records metrics. It also
// listens on the device command topic and acknowledges each command:
//
//	irrigation/device/{id}/command  <- {"id":"c1","command":"rain_delay","parameters":{"duration":86400}}
//	irrigation/device/{id}/ack      -> {"command_id":"c1","status":"accepted",...}
//	irrigation/device/{id}/state    -> retained StateMessage
//
// Commands: stop_water, standby_on, standby_off, rain_delay,
// rain_delay_cancel, pause_zone_run, resume_zone_run and start_zone.
package bridge

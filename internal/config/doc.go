// Package config loads the vinterp host configuration.
//
// The configuration lives in vinterp.json or vinterp.yaml. Missing fields
// take their defaults; Validate reports values the host cannot run with.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "host": "localhost",
//	    "port": 7400,
//	    "readTimeout": "60s",
//	    "writeTimeout": "10s",
//	    "heartbeatInterval": "30s",
//	    "maxMessageSize": 16777216,
//	    "queueSize": 256,
//	    "allowedOrigins": ["https://app.example.com"]
//	  },
//	  "interp": {
//	    "rootId": 0,
//	    "sanitize": "ugc"
//	  },
//	  "metrics": { "enabled": true, "path": "/metrics", "namespace": "vinterp" },
//	  "tracing": { "enabled": false, "tracerName": "vinterp" },
//	  "log": { "level": "info", "format": "text" }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("Listening on", cfg.Addr())
package config

package config

// DefaultYAML is written when the launcher starts without a config file.
const DefaultYAML = `modules:
  launcher:
    root: .
    interpreter: python3
    stop_timeout: 10s
    control_addr: 127.0.0.1:50051
    metrics_addr: ""
    log_level: INFO

  ossftp:
    port: 2048
    log_level: INFO
    listen_address: 127.0.0.1
    masquerade_address: ""
    passive_ports: 51000~52000
    buff_size: 5
    bucket_endpoints: ""
    protocol: https
`

package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	helloSchema := compile("hello.schema.json")
	welcomeSchema := compile("welcome.schema.json")
	commandSchema := compile("command.schema.json")
	ackSchema := compile("ack.schema.json")
	frameSchema := compile("frame.schema.json")

	var hello any
	_ = json.Unmarshal([]byte(`{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "client_name":"viewer1",
	  "mode":"builder"
	}`), &hello)
	validate(helloSchema, hello)

	var welcome any
	_ = json.Unmarshal([]byte(`{
	  "type":"WELCOME",
	  "protocol_version":"1.0",
	  "session_id":"S000001",
	  "mode":"builder",
	  "world_params":{
	    "world_id":"city_1",
	    "tick_rate_hz":10,
	    "width":64,
	    "height":64,
	    "day_ticks":100,
	    "seed":1337
	  }
	}`), &welcome)
	validate(welcomeSchema, welcome)

	var command any
	_ = json.Unmarshal([]byte(`{
	  "type":"COMMAND",
	  "protocol_version":"1.0",
	  "id":"C1",
	  "action":"PLACE",
	  "kind":"ROAD",
	  "x":3,
	  "y":4
	}`), &command)
	validate(commandSchema, command)

	var ack any
	_ = json.Unmarshal([]byte(`{
	  "type":"ACK",
	  "protocol_version":"1.0",
	  "ack_for":"C1",
	  "accepted":false,
	  "code":"E_OCCUPIED",
	  "message":"tile occupied",
	  "server_tick":42
	}`), &ack)
	validate(ackSchema, ack)

	var frame any
	_ = json.Unmarshal([]byte(`{
	  "type":"FRAME",
	  "protocol_version":"1.0",
	  "tick":42,
	  "day":0,
	  "width":2,
	  "height":1,
	  "kinds":[0,1],
	  "occupancy":[0,0],
	  "variants":[0,0],
	  "capacities":[0,0],
	  "loads":[0,0],
	  "agents":[{"id":"A000001","x":1,"y":0,"state":"TRAVELING"}],
	  "zones":{
	    "RESIDENTIAL":{"tiles":0,"capacity":0,"load":0,"unmet_demand":0,"population":0}
	  },
	  "city":{"population":0,"employable":0,"homeless":0,"unemployed":0,"earnings":0,"funds":0,"agents":1}
	}`), &frame)
	validate(frameSchema, frame)
}

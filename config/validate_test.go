package config

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "mainnet defaults", mutate: func(*Config) {}},
		{name: "devnet without endpoint", mutate: func(c *Config) {
			c.Network = Devnet
			c.Simulator.Enabled = true
			c.RPC.Endpoint = ""
		}},
		{name: "bad network", mutate: func(c *Config) { c.Network = "x" }, wantErr: true},
		{name: "missing endpoint", mutate: func(c *Config) { c.RPC.Endpoint = "" }, wantErr: true},
		{name: "non-http endpoint", mutate: func(c *Config) { c.RPC.Endpoint = "ftp://node" }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.RPC.Timeout = -1 }, wantErr: true},
		{name: "bad serve addr", mutate: func(c *Config) { c.Serve.Addr = "localhost" }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultMainnet()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr && err == nil {
				t.Error("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	if err := Validate(nil); err == nil {
		t.Error("nil config should fail")
	}
}

func TestDefault(t *testing.T) {
	if Default(Testnet).Network != Testnet {
		t.Error("Default(testnet) network mismatch")
	}
	if !Default(Devnet).Simulator.Enabled {
		t.Error("devnet should enable the simulator")
	}
	if Default("other").Network != Mainnet {
		t.Error("unknown network should fall back to mainnet")
	}
}

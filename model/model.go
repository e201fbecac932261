package model

// Message kinds exchanged between nodes.
const (
	MsgHello   = "hello"
	MsgHalo    = "halo"
	MsgMigrate = "migrate"
	MsgGather  = "gather"
	MsgBarrier = "barrier"
	MsgAgree   = "agree"
)

// Msg is the record every node-to-node message travels as. Halo messages are tagged by
// Step and the sender's face, migration messages by Epoch and the sender's face.
// Over the websocket mesh Msg travels as json, which has no NaN or Inf: a message
// carrying one fails to send with transport.ErrPeer, so a diverging field stops the run
// at its next exchange. The in-process mesh passes such values through.
type Msg struct {
	Kind   string    `json:"kind"`
	From   int       `json:"from"`
	Grid   string    `json:"grid,omitempty"`
	Epoch  int64     `json:"epoch"`
	Step   int64     `json:"step"`
	Dir    Direction `json:"dir"`
	Count  int       `json:"count"`
	Values []float64 `json:"values,omitempty"`
}

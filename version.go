package script

// Version of the script engine.
const Version = "0.1.0"

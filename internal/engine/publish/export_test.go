package publish

// SplitExported exposes split for testing.
var SplitExported = split

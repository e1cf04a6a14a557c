package zmqffi

// socketV3 is the 3.x variant; the shared core already speaks this line's
// conventions, including native unbind/disconnect.
type socketV3 struct {
	*socketCore
}

// socketV4 and socketV41 follow the embedding of their context variants.
// The revisions differ in option availability, which the descriptor the
// core consults already encodes, so neither adds methods.
type socketV4 struct {
	socketV3
}

type socketV41 struct {
	socketV4
}

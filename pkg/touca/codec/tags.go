package codec

// typeTag is the one-byte discriminator written before every encoded
// types.Node, mirroring the wire `TypeWrapper` union (spec §6).
type typeTag uint8

const (
	tagBool typeTag = iota
	tagInt
	tagUInt
	tagFloat
	tagDouble
	tagString
	tagArray
	tagObject
)

const magic = "TCA1"

package packet

// Client → server opcodes.
const (
	C_OPCODE_LOGIN          byte = 0x01 // account\0 password\0
	C_OPCODE_ENTER_WORLD    byte = 0x02 // varint region prototype
	C_OPCODE_MOVE           byte = 0x03 // 3×float32 position, float32 heading
	C_OPCODE_CELL_LOADED    byte = 0x04 // varint cell id (client finished loading)
	C_OPCODE_USE_TRANSITION byte = 0x05 // varint transition entity id
)

// Server → client opcodes. Emission order within one interest pass is part
// of the protocol: add-area before any cell-create referencing the area,
// cell-creates ascending by cell id, entity-destroys after the create pass.
const (
	S_OPCODE_LOGIN_OK       byte = 0x81
	S_OPCODE_LOGIN_FAIL     byte = 0x82
	S_OPCODE_ENTER_WORLD_OK byte = 0x83 // varint region proto, 3×float32 spawn position
	S_OPCODE_ADD_AREA       byte = 0x84
	S_OPCODE_CELL_CREATE    byte = 0x85
	S_OPCODE_ENTITY_CREATE  byte = 0x86
	S_OPCODE_ENTITY_DESTROY byte = 0x87
	S_OPCODE_ENV_UPDATE     byte = 0x88
	S_OPCODE_MINIMAP_UPDATE byte = 0x89
	S_OPCODE_TELEPORT       byte = 0x8A // varint region proto, 3×float32 landing position
)

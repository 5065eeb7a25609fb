// Package repository define los contratos de persistencia del dominio de cuentas.
//
// Entidades:
//   - User: cuenta local.
//   - EmailAddress: direcciones de un usuario (una primaria, verificadas o no).
//   - SocialAccount: vínculo persistido entre un User y una identidad externa
//     (provider, uid). El par (provider, uid) es único en todo el store.
//
// Las implementaciones viven en internal/store/v2/adapters/{pg,memory}.
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - ErrNotFound cuando no existe, ErrConflict ante violaciones de unicidad
package repository

// errors.go --  This file is part of goPCM project.
// Mirzaeva Irina, 2023
//
//	goPCM is distributed in the hope that it will be useful,
//	but WITHOUT ANY WARRANTY; without even the implied warranty
//	of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//	See the GNU General Public License for more details.
//
//	You should have received a copy of the GNU General Public License
//	along with this program.  If not, see http://www.gnu.org/licenses/
//
// ------------------------------------------------
package gopcm

import "errors"

var (
	// ErrInvalidParams marks unphysical or inconsistent solver parameters.
	ErrInvalidParams = errors.New("invalid fluid parameters")
	// ErrBracket is returned when a monotone inversion cannot bracket its root.
	ErrBracket = errors.New("root bracketing failed")
	// ErrStateSize is returned when a saved state does not match the grid.
	ErrStateSize = errors.New("state size mismatch")
	// ErrNoCavityDensity is returned when a cavity-density gradient is requested
	// but the shape was supplied directly.
	ErrNoCavityDensity = errors.New("shape was not computed from a cavity density")
)
